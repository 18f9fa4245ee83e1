package util

import (
	"math"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func pageFor(query string) Page {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return ParsePage(c, 20, 100)
}

func TestParsePageDefaults(t *testing.T) {
	p := pageFor("")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 0, p.Offset())

	p = pageFor("page=0&limit=-3")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)

	p = pageFor("page=3&limit=500")
	assert.Equal(t, 100, p.Limit)
	assert.Equal(t, 200, p.Offset())
}

func TestParsePageClampsHugePage(t *testing.T) {
	p := pageFor("page=" + strconv.Itoa(math.MaxInt) + "&limit=50")
	assert.Positive(t, p.Offset())
	assert.LessOrEqual(t, p.Offset(), math.MaxInt32)

	p = pageFor("page=99999999999999999999")
	assert.Equal(t, 1, p.Page, "unparseable page falls back to the first")
}

func TestNewPagination(t *testing.T) {
	pg := NewPagination(Page{Page: 2, Limit: 10}, 25)
	assert.Equal(t, 3, pg.TotalPages)
	assert.True(t, pg.HasNextPage)
	assert.True(t, pg.HasPrevPage)

	pg = NewPagination(Page{Page: 1, Limit: 10}, 0)
	assert.Equal(t, 0, pg.TotalPages)
	assert.False(t, pg.HasNextPage)
}
