package controllers

import "github.com/gin-gonic/gin"

// BuildRouter exposes the HTTP routes for handler tests.
func (it *ServeController) BuildRouter() *gin.Engine {
	return it.buildRouter()
}
