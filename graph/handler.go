package graph

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"

	"github.com/mohamedzeina/node-social/middleware"
	"github.com/mohamedzeina/node-social/utils"
)

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler executes GraphQL requests against the schema with the request's
// authentication result placed into the resolver context. Resolver failures
// surface as GraphQL errors on a 200 response, per convention.
func Handler(schema graphql.Schema) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req request
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40010, "invalid graphql request")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			OperationName:  req.OperationName,
			VariableValues: req.Variables,
			Context:        WithIdentity(ctx.Request.Context(), middleware.CurrentIdentity(ctx)),
		})

		ctx.JSON(http.StatusOK, result)
	}
}
