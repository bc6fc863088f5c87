package api

import "github.com/gin-gonic/gin"

const detailNotFound = "Content not found"

// errorResponse is the body of every non-2xx JSON answer.
type errorResponse struct {
	Detail string `json:"detail"`
}

func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, errorResponse{Detail: detail})
}
