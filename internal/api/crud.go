package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/mentha-app/mentha/internal/domain"
	"github.com/mentha-app/mentha/internal/storage"
)

// crudConfig wires one entity's CRUD surface. decode converts the input
// shape into the persisted record under a given id; validate, when set,
// vets the decoded record before any write.
type crudConfig[T, I any] struct {
	prefix   string
	table    *storage.Table[T]
	decode   func(uuid.UUID, I) T
	validate func(T) error
}

// registerCRUD mounts the shared routes every entity gets:
//
//	GET    /{prefix}          paged query
//	POST   /{prefix}          create, returns the new id
//	GET    /{prefix}/{id}
//	PUT    /{prefix}/{id}     full-record update
//	DELETE /{prefix}/{id}
func registerCRUD[T, I any](mux *http.ServeMux, c crudConfig[T, I]) {
	mux.HandleFunc("GET /"+c.prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		record, found, err := c.table.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !found {
			writeDomainError(w, &domain.NotFoundError{ID: id})
			return
		}
		WriteJSON(w, http.StatusOK, record)
	})

	mux.HandleFunc("GET /"+c.prefix, func(w http.ResponseWriter, r *http.Request) {
		opts, err := parseQuery(r)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		results, err := c.table.Query(r.Context(), opts)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, results)
	})

	mux.HandleFunc("POST /"+c.prefix, func(w http.ResponseWriter, r *http.Request) {
		var input I
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		record := c.decode(uuid.New(), input)
		if c.validate != nil {
			if err := c.validate(record); err != nil {
				writeDomainError(w, err)
				return
			}
		}
		if err := c.table.Insert(r.Context(), record); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, c.table.ID(record))
	})

	mux.HandleFunc("PUT /"+c.prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var input I
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		_, found, err := c.table.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !found {
			writeDomainError(w, &domain.NotFoundError{ID: id})
			return
		}
		record := c.decode(id, input)
		if c.validate != nil {
			if err := c.validate(record); err != nil {
				writeDomainError(w, err)
				return
			}
		}
		if err := c.table.Update(r.Context(), record); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, record)
	})

	mux.HandleFunc("DELETE /"+c.prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := c.table.Delete(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// pathID parses a uuid path segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
