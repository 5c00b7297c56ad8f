package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/firesafe/errors"
	"gorm.io/gorm"
)

// JSON writes the standard envelope. A non-nil err fills the error field and,
// when it is an *errs.Error with a code, the code field.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	errMessage := ""
	var code string
	if err != nil {
		errMessage = err.Error()
		var apiErr *errs.Error
		if errors.As(err, &apiErr) {
			code = apiErr.Code
		}
	}

	responseData := gin.H{
		"message":   message,
		"data":      data,
		"error":     errMessage,
		"status":    http.StatusText(status),
		"timestamp": time.Now().Format(time.RFC850),
	}
	if code != "" {
		responseData["code"] = code
	}

	c.JSON(status, responseData)
}

// HandleErrors renders any error with the status it carries.
func HandleErrors(c *gin.Context, err error) {
	var apiErr *errs.Error
	switch {
	case errors.As(err, &apiErr):
		JSON(c, apiErr.Message, apiErr.Status, nil, apiErr)
	case errors.Is(err, gorm.ErrRecordNotFound):
		JSON(c, "not found", http.StatusNotFound, nil, errs.ErrNotFound)
	default:
		JSON(c, err.Error(), http.StatusInternalServerError, nil, err)
	}
}
