package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("field")
	})
}

// record is the coerced form of Fields. Pointers keep null apart from the
// empty string, which is a legal value.
type record struct {
	Name          *string `field:"name" validate:"required,max=64"`
	Author        *string `field:"author" validate:"required,max=64"`
	YearPublished *int64  `field:"year_published" validate:"required"`
	BookType      *string `field:"book_type" validate:"required,max=20"`
	Status        *string `field:"status" validate:"required,max=20"`
}

var fieldOrder = map[string]int{
	FieldName:          0,
	FieldAuthor:        1,
	FieldYearPublished: 2,
	FieldBookType:      3,
	FieldStatus:        4,
}

// IsField reports whether name is a book column that can be set or filtered on.
func IsField(name string) bool {
	_, ok := fieldOrder[name]
	return ok
}

// Normalize coerces a raw record and checks it against the column
// constraints. Uniqueness is not checked here; it needs the store.
func Normalize(f Fields) (Book, []Violation) {
	return normalize(0, f)
}

func normalize(index int, f Fields) (Book, []Violation) {
	var (
		rec        record
		violations []Violation
	)
	flagged := make(map[string]bool)
	flag := func(field, rule, message string) {
		flagged[field] = true
		violations = append(violations, violate(index, field, rule, message))
	}

	for _, field := range []string{FieldName, FieldAuthor, FieldBookType} {
		s, err := stringValue(f[field])
		if err != nil {
			flag(field, RuleType, err.Error())
			continue
		}
		switch field {
		case FieldName:
			rec.Name = s
		case FieldAuthor:
			rec.Author = s
		case FieldBookType:
			rec.BookType = s
		}
	}

	if raw, ok := f[FieldStatus]; !ok || raw == nil {
		status := DefaultStatus
		rec.Status = &status
	} else if s, err := stringValue(raw); err != nil {
		flag(FieldStatus, RuleType, err.Error())
	} else {
		rec.Status = s
	}

	if raw := f[FieldYearPublished]; raw != nil {
		year, rule, err := int64Value(raw)
		if err != nil {
			flag(FieldYearPublished, rule, err.Error())
		} else {
			rec.YearPublished = &year
		}
	}

	unknown := make([]string, 0)
	for key := range f {
		if !IsField(key) {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		flag(key, RuleUnknown, "is not a book field")
	}

	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			flag("record", RuleType, err.Error())
		}
		for _, fe := range verrs {
			if flagged[fe.Field()] {
				continue
			}
			switch fe.Tag() {
			case "required":
				violations = append(violations, violate(index, fe.Field(), RuleRequired, "is required"))
			case "max":
				violations = append(violations, violate(index, fe.Field(), RuleMaxLength,
					fmt.Sprintf("must be at most %s characters", fe.Param())))
			default:
				violations = append(violations, violate(index, fe.Field(), fe.Tag(), "is invalid"))
			}
		}
	}

	sortViolations(violations)
	if len(violations) > 0 {
		return Book{}, violations
	}
	return Book{
		Name:          *rec.Name,
		Author:        *rec.Author,
		YearPublished: *rec.YearPublished,
		BookType:      *rec.BookType,
		Status:        *rec.Status,
	}, nil
}

func sortViolations(vs []Violation) {
	rank := func(v Violation) int {
		if r, ok := fieldOrder[v.Field]; ok {
			return r
		}
		return len(fieldOrder)
	}
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].Index != vs[j].Index {
			return vs[i].Index < vs[j].Index
		}
		return rank(vs[i]) < rank(vs[j])
	})
}

// stringValue accepts only real strings. A nil value yields a nil pointer
// so the required rule can report it.
func stringValue(v any) (*string, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &s, nil
	case *string:
		return s, nil
	default:
		return nil, fmt.Errorf("must be a string, got %T", v)
	}
}

var (
	errNotInteger = errors.New("must be an integer")
	errOutOfRange = errors.New("must fit in a signed 64-bit integer")
)

// int64Value accepts integer kinds, integral floats, integer JSON numbers
// and big integers. Strings are never parsed, numeric or not.
func int64Value(v any) (int64, string, error) {
	switch n := v.(type) {
	case int:
		return int64(n), "", nil
	case int8:
		return int64(n), "", nil
	case int16:
		return int64(n), "", nil
	case int32:
		return int64(n), "", nil
	case int64:
		return n, "", nil
	case uint8:
		return int64(n), "", nil
	case uint16:
		return int64(n), "", nil
	case uint32:
		return int64(n), "", nil
	case uint:
		return uint64Value(uint64(n))
	case uint64:
		return uint64Value(n)
	case float32:
		return floatValue(float64(n))
	case float64:
		return floatValue(n)
	case *big.Int:
		if n == nil {
			return 0, RuleRequired, errors.New("is required")
		}
		if !n.IsInt64() {
			return 0, RuleRange, errOutOfRange
		}
		return n.Int64(), "", nil
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return i, "", nil
		}
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, RuleRange, errOutOfRange
		}
		f, ferr := n.Float64()
		if ferr != nil {
			var fNumErr *strconv.NumError
			if errors.As(ferr, &fNumErr) && errors.Is(fNumErr.Err, strconv.ErrRange) {
				return 0, RuleRange, errOutOfRange
			}
			return 0, RuleType, errNotInteger
		}
		return floatValue(f)
	default:
		return 0, RuleType, fmt.Errorf("%w, got %T", errNotInteger, v)
	}
}

func uint64Value(n uint64) (int64, string, error) {
	if n > math.MaxInt64 {
		return 0, RuleRange, errOutOfRange
	}
	return int64(n), "", nil
}

func floatValue(f float64) (int64, string, error) {
	if math.IsNaN(f) {
		return 0, RuleType, errNotInteger
	}
	if math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, RuleRange, errOutOfRange
	}
	if f != math.Trunc(f) {
		return 0, RuleType, errNotInteger
	}
	return int64(f), "", nil
}
