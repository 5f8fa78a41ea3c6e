package api

import (
	"net/http"

	"rental-marketplace/internal/common/errors"

	"github.com/gin-gonic/gin"
)

// importListings replaces listings from a pasted JSON array. A batch with
// any malformed item is rejected whole; an indexing failure after the
// database write is reported as a partial success.
func (h *handlers) importListings(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeError(c, errors.NewInputValidationFailedError(err.Error()))
		return
	}

	report, err := h.deps.Importer.Import(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}

	h.deps.Logger.WithContext(c.Request.Context()).Info("listings imported", map[string]interface{}{
		"imported": report.Imported,
		"indexed":  report.Indexed,
		"by":       userID(c),
	})
	c.JSON(http.StatusOK, report)
}
