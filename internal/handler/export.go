package handler

import (
	"context"
	"encoding/csv"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// ExportCSV streams every request matching the optional ?search= filter as a
// CSV attachment, newest first. CSV is the only export format served here;
// binary formats are produced elsewhere.
func (h *AdminRequestHandler) ExportCSV(c echo.Context) error {
	search := strings.TrimSpace(c.QueryParam("search"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	items, _, err := h.Requests.List(ctx, 1, 0, true, search)
	if err != nil {
		return storeError(c, err, "Failed to read requests")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="repair-requests.csv"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write([]string{
		"id", "name", "email", "phone", "product", "issue",
		"serviceType", "status", "payment", "createdAt", "updatedAt",
	}); err != nil {
		return err
	}
	for _, r := range items {
		if err := w.Write([]string{
			r.ID, r.Name, r.Email, r.Phone, r.Product, r.Issue,
			r.ServiceType, r.Status, r.Payment,
			r.CreatedAt.Format(time.RFC3339),
			r.UpdatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
