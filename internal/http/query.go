package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"maintenance-service/internal/utils"
)

// queryParams reads optional filters from the query string and collects a
// message per malformed parameter.
type queryParams struct {
	c      *gin.Context
	errors map[string]string
}

func newQueryParams(c *gin.Context) *queryParams {
	return &queryParams{c: c, errors: map[string]string{}}
}

func (q *queryParams) raw(name string) string {
	return strings.TrimSpace(q.c.Query(name))
}

func (q *queryParams) strParam(name string) *string {
	v := q.raw(name)
	if v == "" {
		return nil
	}
	return &v
}

func (q *queryParams) uintParam(name string) *uint {
	v := q.raw(name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		q.errors[name] = "Enter a whole number."
		return nil
	}
	id := uint(n)
	return &id
}

func (q *queryParams) boolParam(name string) *bool {
	v := q.raw(name)
	if v == "" {
		return nil
	}
	b := strings.EqualFold(v, "true")
	return &b
}

func (q *queryParams) timeParam(name string) *time.Time {
	v := q.raw(name)
	if v == "" {
		return nil
	}
	t, err := parseTime(v)
	if err != nil {
		q.errors[name] = "Enter a valid date/time."
		return nil
	}
	return &t
}

// enum normalizes the value and checks it with valid.
func enum[T ~string](q *queryParams, name string, valid func(T) bool) *T {
	v := q.raw(name)
	if v == "" {
		return nil
	}
	value := T(utils.NormalizeEnum(v))
	if !valid(value) {
		q.errors[name] = "Select a valid choice. " + v + " is not one of the available choices."
		return nil
	}
	return &value
}

// ok answers with 400 when any parameter was malformed.
func (q *queryParams) ok() bool {
	if len(q.errors) == 0 {
		return true
	}
	q.c.JSON(http.StatusBadRequest, validationResponse(q.errors))
	return false
}
