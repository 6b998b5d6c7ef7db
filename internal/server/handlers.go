package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/workbook"
)

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// DecodeHandler decodes the raw request body. The filename query parameter
// and the Content-Type header are format hints.
func (s *Server) DecodeHandler(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.respondError(c, badRequest("read body: %v", err))
	}
	hint := sheetcore.Hint{
		Filename:    c.QueryParam("filename"),
		ContentType: c.Request().Header.Get(echo.HeaderContentType),
	}
	w, err := sheetcore.Open(c.Request().Context(), data, hint, s.opts)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, w)
}

// EncodeHandler encodes a workbook posted as JSON. With the sheet query
// parameter only that sheet is encoded.
func (s *Server) EncodeHandler(c echo.Context) error {
	var w workbook.Workbook
	if err := c.Bind(&w); err != nil {
		return s.respondError(c, badRequest("workbook: %v", err))
	}
	if len(w.Sheets()) == 0 {
		return s.respondError(c, badRequest("workbook has no sheets"))
	}

	var data []byte
	var err error
	if raw := c.QueryParam("sheet"); raw != "" {
		i, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return s.respondError(c, badRequest("sheet %q", raw))
		}
		sheet, sheetErr := w.Sheet(i)
		if sheetErr != nil {
			return s.respondError(c, badRequest("%v", sheetErr))
		}
		data, err = sheetcore.SaveSheet(c.Request().Context(), sheet, s.opts)
	} else {
		data, err = sheetcore.Save(c.Request().Context(), &w, s.opts)
	}
	if err != nil {
		return s.respondError(c, err)
	}

	filename := c.QueryParam("filename")
	if filename == "" {
		filename = "workbook.xlsx"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, sheetcore.ContentType, data)
}

// overlayRequest is the body of an overlay evaluation.
type overlayRequest struct {
	Sheet *workbook.Sheet `json:"sheet"`
	// Now fixes "today" for date conditions. Empty means the request time.
	Now string `json:"now"`
}

// OverlayHandler evaluates the conditional formatting of a posted sheet.
func (s *Server) OverlayHandler(c echo.Context) error {
	var req overlayRequest
	if err := c.Bind(&req); err != nil {
		return s.respondError(c, badRequest("overlay request: %v", err))
	}
	if req.Sheet == nil {
		return s.respondError(c, badRequest("missing sheet"))
	}
	now := time.Now()
	if req.Now != "" {
		t, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			return s.respondError(c, badRequest("now %q is not RFC 3339", req.Now))
		}
		now = t
	}

	w, err := workbook.FromSheets([]*workbook.Sheet{req.Sheet}, 0)
	if err != nil {
		return s.respondError(c, err)
	}
	ov, err := sheetcore.Overlay(c.Request().Context(), w, 0, now, s.opts)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, ov)
}

// chartDataRequest selects the data either by chart id or by range.
type chartDataRequest struct {
	Sheet          *workbook.Sheet `json:"sheet"`
	ChartID        string          `json:"chartId"`
	Range          string          `json:"range"`
	CategoryColumn int             `json:"categoryColumn"`
}

// ChartDataHandler extracts categories and series from a posted sheet.
func (s *Server) ChartDataHandler(c echo.Context) error {
	var req chartDataRequest
	if err := c.Bind(&req); err != nil {
		return s.respondError(c, badRequest("chart data request: %v", err))
	}
	if req.Sheet == nil {
		return s.respondError(c, badRequest("missing sheet"))
	}

	rng, catCol := address.Range{}, req.CategoryColumn
	switch {
	case req.ChartID != "":
		chart, ok := req.Sheet.Chart(req.ChartID)
		if !ok {
			return s.respondError(c, badRequest("%v: %s", workbook.ErrChartNotFound, req.ChartID))
		}
		rng, catCol = chart.DataRange, chart.Options.CategoryColumn
	default:
		parsed, ok := address.ParseA1Range(req.Range)
		if !ok {
			return s.respondError(c, fmt.Errorf("%w: range %q", sheetcore.ErrMalformedInput, req.Range))
		}
		rng = parsed
	}

	w, err := workbook.FromSheets([]*workbook.Sheet{req.Sheet}, 0)
	if err != nil {
		return s.respondError(c, err)
	}
	data, err := sheetcore.ChartData(w, 0, rng, catCol, s.opts)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, data)
}
