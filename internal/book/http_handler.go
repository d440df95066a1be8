package book

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"bookshelf/internal/httpx"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Create handles POST /v1/books. The body is one book object or an array
// of them; the whole body is committed together.
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	batch, err := decodeBatch(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.JSONErrorWithRequest(r, w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
			return
		}
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	books, err := h.service.Create(r.Context(), batch...)
	if err != nil {
		var cv *ConstraintViolation
		if errors.As(err, &cv) {
			status, code := http.StatusUnprocessableEntity, "CONSTRAINT_VIOLATION"
			if cv.Only(RuleUnique) {
				status, code = http.StatusConflict, "CONFLICT"
			}
			httpx.JSONErrorWithRequest(r, w, status, code, "Books violate field constraints", violationDetails(cv))
			return
		}
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccessCreatedWithRequest(r, w, books)
}

// List handles GET /v1/books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := filtersFromQuery(query)

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	params := ListQuery{Filters: filters, Limit: pageSize, Offset: (page - 1) * pageSize}

	if c := query.Get("cursor"); c != "" {
		cursor, err := DecodeCursor(c)
		if err != nil {
			httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid cursor", nil)
			return
		}
		params.AfterID = cursor.AfterID
		params.Offset = 0
	}

	books, total, err := h.service.List(r.Context(), params)
	if err != nil {
		if h.writeFilterError(w, r, err) {
			return
		}
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if books == nil {
		books = []Book{}
	}

	meta := map[string]any{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	}
	if len(books) == pageSize {
		meta["next_cursor"] = EncodeCursor(CursorData{AfterID: books[len(books)-1].ID})
	}
	httpx.JSONSuccessWithRequest(r, w, books, meta)
}

// Lookup handles GET /v1/books/lookup and returns the first book matching
// every filter.
func (h *HTTPHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.First(r.Context(), filtersFromQuery(r.URL.Query())...)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "NOT_FOUND", "No book matches", nil)
			return
		}
		if h.writeFilterError(w, r, err) {
			return
		}
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, b, nil)
}

func (h *HTTPHandler) writeFilterError(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.Is(err, ErrInvalidFilter) || errors.Is(err, ErrUnknownField) {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "INVALID_FILTER", err.Error(), nil)
		return true
	}
	return false
}

// filtersFromQuery picks the book fields out of the URL query. Years are
// passed on as JSON numbers so they coerce like a request body would.
func filtersFromQuery(query map[string][]string) []Filter {
	var filters []Filter
	for _, field := range []string{FieldName, FieldAuthor, FieldYearPublished, FieldBookType, FieldStatus} {
		values, ok := query[field]
		if !ok {
			continue
		}
		for _, v := range values {
			var value any = v
			if field == FieldYearPublished {
				value = json.Number(v)
			}
			filters = append(filters, Filter{Field: field, Value: value})
		}
	}
	return filters
}

var errEmptyBatch = errors.New("request body must contain at least one book")

func decodeBatch(body io.Reader) ([]Fields, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errEmptyBatch
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var batch []Fields
	if raw[0] == '[' {
		if err := dec.Decode(&batch); err != nil {
			return nil, errors.New("request body must be a JSON array of book objects")
		}
	} else {
		var one Fields
		if err := dec.Decode(&one); err != nil {
			return nil, errors.New("request body must be a JSON object")
		}
		batch = []Fields{one}
	}
	if dec.More() {
		return nil, errors.New("request body must contain a single JSON value")
	}
	if len(batch) == 0 {
		return nil, errEmptyBatch
	}
	for i, f := range batch {
		if f == nil {
			return nil, errors.New("book " + strconv.Itoa(i) + " must be a JSON object")
		}
	}
	return batch, nil
}

func violationDetails(cv *ConstraintViolation) []httpx.ErrorDetail {
	details := make([]httpx.ErrorDetail, 0, len(cv.Violations))
	for _, v := range cv.Violations {
		idx := v.Index
		details = append(details, httpx.ErrorDetail{
			Index:   &idx,
			Field:   v.Field,
			Rule:    v.Rule,
			Message: v.Message,
		})
	}
	return details
}
