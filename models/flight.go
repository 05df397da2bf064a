package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Passengers describes the travelling party. The zero value is not valid on its own;
// use DefaultPassengers for the minimal "1 adult" configuration.
type Passengers struct {
	Adults        int   `json:"num_adults" validate:"gte=1"`
	Seniors       int   `json:"num_seniors" validate:"gte=0"`
	Students      int   `json:"num_students" validate:"gte=0"`
	ChildrenAges  []int `json:"children_ages" validate:"dive,gte=2,lte=17"`
	InfantsOnSeat int   `json:"infants_on_seat" validate:"gte=0"`
	InfantsOnLap  int   `json:"infants_on_lap" validate:"gte=0"`
}

// DefaultPassengers is one adult and nobody else
func DefaultPassengers() Passengers {
	return Passengers{Adults: 1, ChildrenAges: []int{}}
}

// HasChildren reports whether any child-type passenger is present
func (p Passengers) HasChildren() bool {
	return len(p.ChildrenAges) > 0 || p.InfantsOnSeat > 0 || p.InfantsOnLap > 0
}

// FlightSearchParams is a validated flight query
type FlightSearchParams struct {
	Origin        string `json:"leaving_airport" validate:"required,len=3,alpha"`
	Destination   string `json:"destination_airport" validate:"required,len=3,alpha"`
	DepartureDate string `json:"departure_date" validate:"required,datetime=2006-01-02"`
	ReturnDate    string `json:"return_date" validate:"required,datetime=2006-01-02"`
	Passengers
}

// FlightRequest is the loosely-typed input accepted from HTTP bodies and from the
// text-analysis collaborator. Nil counts take their defaults.
type FlightRequest struct {
	Origin        string `json:"leaving_airport"`
	Destination   string `json:"destination_airport"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date"`
	Adults        *int   `json:"num_adults"`
	Seniors       *int   `json:"num_seniors"`
	Students      *int   `json:"num_students"`
	ChildrenAges  []int  `json:"children_ages"`
	InfantsOnSeat *int   `json:"infants_on_seat"`
	InfantsOnLap  *int   `json:"infants_on_lap"`
}

// Params applies defaults, uppercases airport codes and validates the result
func (r FlightRequest) Params() (FlightSearchParams, error) {
	pax := DefaultPassengers()
	setInt(&pax.Adults, r.Adults)
	setInt(&pax.Seniors, r.Seniors)
	setInt(&pax.Students, r.Students)
	setInt(&pax.InfantsOnSeat, r.InfantsOnSeat)
	setInt(&pax.InfantsOnLap, r.InfantsOnLap)
	if r.ChildrenAges != nil {
		pax.ChildrenAges = append([]int{}, r.ChildrenAges...)
	}

	p := FlightSearchParams{
		Origin:        strings.ToUpper(strings.TrimSpace(r.Origin)),
		Destination:   strings.ToUpper(strings.TrimSpace(r.Destination)),
		DepartureDate: strings.TrimSpace(r.DepartureDate),
		ReturnDate:    strings.TrimSpace(r.ReturnDate),
		Passengers:    pax,
	}
	if err := p.Validate(); err != nil {
		return FlightSearchParams{}, err
	}
	return p, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func paramsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks required fields and passenger bounds
func (p FlightSearchParams) Validate() error {
	err := paramsValidator().Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewInputError("invalid flight parameters: %v", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	if len(missing) > 0 {
		return NewInputError("Missing required parameters: %s", strings.Join(missing, ", "))
	}
	return NewInputError("Invalid parameters: %s", strings.Join(invalid, ", "))
}

// InputError marks a request that cannot be processed as given
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return e.Msg
}

// NewInputError builds an InputError from a format string
func NewInputError(format string, args ...interface{}) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err is, or wraps, an InputError
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// FlightLookup is the persisted record of one scrape invocation
type FlightLookup struct {
	ID         string
	Params     FlightSearchParams
	TargetURL  string
	Outcome    string
	BookingURL string
	Reason     string
	Duration   time.Duration
	CreatedAt  time.Time
}
