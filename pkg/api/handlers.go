package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"
	"github.com/swaggo/swag"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/iso2709"
	"github.com/ssargent/iso2709/pkg/query"
	"github.com/ssargent/iso2709/pkg/storage"
)

const (
	// ContentTypeISO2709 is used for raw record bodies
	ContentTypeISO2709 = "application/octet-stream"

	defaultListLimit = 100
	maxListLimit     = 1000
)

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// statusFor maps codec and archive errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, codec.ErrInvalidRecord),
		errors.Is(err, iso2709.ErrFormat),
		errors.Is(err, iso2709.ErrInvalidArgument),
		errors.Is(err, iso2709.ErrIllegalState):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]interface{}{
		"status":  "healthy",
		"format":  s.codec.Format().String(),
		"archive": s.archive != nil,
	})
}

// handleSwaggerDoc serves the registered Swagger document
func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		log.Errorw("failed to render swagger doc", "error", err)
		sendError(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// decode decodes one record and records metrics
func (s *Server) decode(data []byte) (*codec.Record, error) {
	start := time.Now()
	rec, err := s.codec.Decode(data)
	s.metrics.ObserveDecode(len(data), err, time.Since(start))
	return rec, err
}

func (s *Server) encode(rec *codec.Record) ([]byte, error) {
	start := time.Now()
	data, err := s.codec.Encode(rec)
	s.metrics.ObserveEncode(len(data), err, time.Since(start))
	return data, err
}

// handleDecode decodes a body of one or more concatenated records. Records
// that fail to decode are reported individually; a body that cannot be
// framed into records is rejected.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	results := []DecodedRecord{}
	var offset int64
	for data := body; len(data) > 0; {
		advance, token, err := iso2709.ScanRecords(data, true)
		if err != nil {
			sendError(w, fmt.Sprintf("Cannot frame record at offset %d: %v", offset, err), http.StatusBadRequest)
			return
		}
		if token != nil {
			at := offset + int64(advance-len(token))
			rec, err := s.decode(token)
			if err != nil {
				results = append(results, DecodedRecord{Offset: at, Error: err.Error()})
			} else {
				results = append(results, DecodedRecord{Offset: at, Record: rec})
			}
		}
		if advance == 0 {
			break
		}
		data = data[advance:]
		offset += int64(advance)
	}

	if len(results) == 0 {
		sendError(w, "Request body contains no records", http.StatusBadRequest)
		return
	}
	sendSuccess(w, results)
}

// handleEncode encodes a JSON document and returns the raw record
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var rec codec.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	data, err := s.encode(&rec)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", ContentTypeISO2709)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleArchivePut stores a raw record body
func (s *Server) handleArchivePut(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	id, err := s.archive.Put(body)
	s.metrics.RecordArchiveOperation("put", err)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}

	resp := ArchivedRecord{ID: id, Size: len(body)}
	if parsed, err := iso2709.ParseRecord(body); err == nil {
		resp.RecordID, _ = parsed.RecordID()
	}
	sendJSON(w, http.StatusCreated, resp)
}

func parseID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid record id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

// handleArchiveGet returns the stored record; ?format=json returns the
// decoded document instead of the raw bytes
func (s *Server) handleArchiveGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	s.writeArchived(w, r, id)
}

func (s *Server) writeArchived(w http.ResponseWriter, r *http.Request, id ksuid.KSUID) {
	data, err := s.archive.Get(id)
	s.metrics.RecordArchiveOperation("get", err)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}

	if r.URL.Query().Get("format") != "json" {
		w.Header().Set("Content-Type", ContentTypeISO2709)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	rec, err := s.decode(data)
	if err != nil {
		log.Errorw("archived record does not decode", "id", id.String(), "error", err)
		sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, ArchivedRecord{ID: id, RecordID: rec.ID(), Size: len(data), Record: rec})
}

// handleArchiveLookup resolves an identifier field value to the archived record
func (s *Server) handleArchiveLookup(w http.ResponseWriter, r *http.Request) {
	id, err := s.archive.Lookup(chi.URLParam(r, "recordID"))
	s.metrics.RecordArchiveOperation("lookup", err)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}
	s.writeArchived(w, r, id)
}

// handleArchiveDelete removes a stored record
func (s *Server) handleArchiveDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	err := s.archive.Delete(id)
	s.metrics.RecordArchiveOperation("delete", err)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}
	sendSuccess(w, map[string]string{"id": id.String(), "status": "deleted"})
}

// handleArchiveList pages through archived ids with ?after=<id>&limit=<n>
func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	after := ksuid.Nil
	if v := q.Get("after"); v != "" {
		id, err := ksuid.Parse(v)
		if err != nil {
			sendError(w, "Invalid after parameter", http.StatusBadRequest)
			return
		}
		after = id
	}

	limit := defaultListLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			sendError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	ids, err := s.archive.List(after, limit)
	s.metrics.RecordArchiveOperation("list", err)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}

	listing := ArchiveListing{IDs: ids}
	if listing.IDs == nil {
		listing.IDs = []ksuid.KSUID{}
	}
	if len(ids) == limit {
		next := ids[len(ids)-1]
		listing.Next = &next
	}
	sendSuccess(w, listing)
}

// handleArchiveSearch finds archived records by field value with
// ?field=245$a&op=prefix&value=Cats&limit=<n>. op defaults to "=".
func (s *Server) handleArchiveSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	fq := query.FieldQuery{
		Field:    q.Get("field"),
		Operator: q.Get("op"),
		Value:    q.Get("value"),
	}
	if fq.Operator == "" {
		fq.Operator = query.OpEqual
	}
	if err := fq.Validate(); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := defaultListLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			sendError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	it, err := query.NewScanQueryEngine(s.archive, nil).ExecuteQuery(r.Context(), fq, limit)
	s.metrics.RecordArchiveOperation("search", err)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}
	defer it.Close()

	results := SearchResults{Query: fq, Results: []SearchHit{}}
	for it.Next() {
		res := it.Result()
		hit := SearchHit{ID: res.ID, Values: res.Values}
		if rec, err := iso2709.ParseRecord(res.Data); err == nil {
			hit.RecordID, _ = rec.RecordID()
		}
		results.Results = append(results.Results, hit)
	}
	sendSuccess(w, results)
}
