package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ExtractStringParam создает middleware для извлечения и валидации строкового параметра URL.
// paramName - имя параметра в URL (например, "subjectID").
// contextKey - ключ, под которым значение будет сохранено в контексте Gin.
func ExtractStringParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value := c.Param(paramName)
		if value == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName)})
			c.Abort()
			return
		}
		c.Set(contextKey, value)
		c.Next()
	}
}
