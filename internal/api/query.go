package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mentha-app/mentha/internal/storage"
)

const defaultPageSize = 50

// parseQuery reads paging, sorting and filtering from query params.
//   - page, pageSize: integers; pageSize=0 disables paging
//   - sort: comma-separated fields, "-" prefix for descending
//   - filter: repeatable "field:op:term" with op one of = > < >= <= like
func parseQuery(r *http.Request) (storage.QueryOpts, error) {
	opts := storage.QueryOpts{Page: 1, PageSize: defaultPageSize}
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return opts, fmt.Errorf("invalid page %q", raw)
		}
		opts.Page = page
	}
	if raw := q.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 0 {
			return opts, fmt.Errorf("invalid pageSize %q", raw)
		}
		opts.PageSize = size
	}
	if raw := q.Get("sort"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			sort := storage.Sort{Field: field}
			if strings.HasPrefix(field, "-") {
				sort = storage.Sort{Field: field[1:], Desc: true}
			}
			opts.Sorts = append(opts.Sorts, sort)
		}
	}
	for _, raw := range q["filter"] {
		op, err := parseFilter(raw)
		if err != nil {
			return opts, err
		}
		opts.Filters = append(opts.Filters, op)
	}
	return opts, nil
}

func parseFilter(raw string) (storage.Op, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return storage.Op{}, fmt.Errorf("invalid filter %q, want field:op:term", raw)
	}
	field, op, term := parts[0], parts[1], coerceTerm(parts[2])
	switch op {
	case "=":
		return storage.Eq(field, term), nil
	case ">":
		return storage.Gt(field, term), nil
	case "<":
		return storage.Lt(field, term), nil
	case ">=":
		return storage.Ge(field, term), nil
	case "<=":
		return storage.Le(field, term), nil
	case "like":
		s, ok := term.(string)
		if !ok {
			return storage.Op{}, fmt.Errorf("like filter %q needs a string term", raw)
		}
		return storage.Like(field, s), nil
	default:
		return storage.Op{}, fmt.Errorf("invalid filter op %q", op)
	}
}

var datePattern = regexp.MustCompile(`^(\d{4})[-/](\d{2})[-/](\d{2})`)

// coerceTerm converts a raw query term into the type the column most
// likely holds: number, date, or the string itself. Numeric terms
// always become floats, integral or not.
func coerceTerm(raw string) any {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if m := datePattern.FindStringSubmatch(raw); m != nil {
		d, err := time.Parse("2006-01-02", fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]))
		if err == nil {
			return d
		}
	}
	return raw
}
