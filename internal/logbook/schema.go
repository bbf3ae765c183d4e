package logbook

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Result is the outcome of every validator in this package.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func newResult(errs []string) Result {
	if errs == nil {
		errs = []string{}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Errors: r.Errors}
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

func invalid(msg string) Result {
	return Result{Valid: false, Errors: []string{msg}}
}

type fieldType int

const (
	typeString fieldType = iota
	typeNumber
	typeBoolean
	typeArray
	typeObject
	typeTimestamp
	// typeMeasure is a number or text the tolerant parsers can read.
	typeMeasure
)

func (t fieldType) String() string {
	switch t {
	case typeString:
		return "string"
	case typeNumber:
		return "number"
	case typeBoolean:
		return "boolean"
	case typeArray:
		return "array"
	case typeObject:
		return "object"
	case typeTimestamp:
		return "timestamp"
	case typeMeasure:
		return "number or string"
	}
	return "unknown"
}

type schema map[string]fieldType

var hikeSchema = schema{
	"title":           typeString,
	"location":        typeString,
	"route":           typeString,
	"date":            typeTimestamp,
	"startTime":       typeTimestamp,
	"endTime":         typeTimestamp,
	"duration":        typeNumber,
	"distance":        typeNumber,
	"elevation":       typeNumber,
	"difficulty":      typeString,
	"weather":         typeString,
	"notes":           typeString,
	"waypoints":       typeArray,
	"startLocation":   typeObject,
	"endLocation":     typeObject,
	"routeMap":        typeString,
	"gpsTrack":        typeArray,
	"createdAt":       typeTimestamp,
	"updatedAt":       typeTimestamp,
	"userId":          typeString,
	"status":          typeString,
	"pinned":          typeBoolean,
	"shared":          typeBoolean,
	"accomplishments": typeArray,
}

// hikeInputSchema is hikeSchema as request bodies are checked: measurements
// may still carry their units.
var hikeInputSchema = func() schema {
	s := schema{}
	for k, t := range hikeSchema {
		s[k] = t
	}
	for _, k := range []string{"distance", "elevation", "duration"} {
		s[k] = typeMeasure
	}
	return s
}()

var userSchema = schema{
	"email":       typeString,
	"displayName": typeString,
	"bio":         typeString,
	"location":    typeString,
	"photoURL":    typeString,
	"preferences": typeObject,
	"stats":       typeObject,
	"createdAt":   typeTimestamp,
	"updatedAt":   typeTimestamp,
}

var waypointSchema = schema{
	"latitude":    typeNumber,
	"longitude":   typeNumber,
	"elevation":   typeNumber,
	"timestamp":   typeTimestamp,
	"description": typeString,
	"type":        typeString,
}

var locationSchema = schema{
	"latitude":  typeNumber,
	"longitude": typeNumber,
	"elevation": typeNumber,
	"accuracy":  typeNumber,
	"timestamp": typeTimestamp,
}

// check reports a type error for every present field declared in s.
// Absent fields are never errors here. A JSON null counts as absent.
func (s schema) check(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []string
	for _, k := range keys {
		want, declared := s[k]
		if !declared || data[k] == nil {
			continue
		}
		if !hasType(data[k], want) {
			errs = append(errs, fmt.Sprintf("%s must be of type %s", k, want))
		}
	}
	return errs
}

func hasType(v any, t fieldType) bool {
	switch t {
	case typeString:
		_, ok := v.(string)
		return ok
	case typeNumber:
		n, ok := asNumber(v)
		return ok && !math.IsNaN(n)
	case typeBoolean:
		_, ok := v.(bool)
		return ok
	case typeArray:
		return isArray(v)
	case typeObject:
		if _, ok := v.(map[string]any); ok {
			return true
		}
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct
	case typeTimestamp:
		switch v.(type) {
		case time.Time, *time.Time, Timestamp, string:
			return true
		}
	case typeMeasure:
		if _, ok := v.(string); ok {
			return true
		}
		return hasType(v, typeNumber)
	}
	return false
}

func isArray(v any) bool {
	if _, ok := v.([]byte); ok {
		return false
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// ValidateHikeSchema type-checks a raw hike document and enforces the
// difficulty and status enums. Nested waypoints and locations are checked too.
func ValidateHikeSchema(data map[string]any) Result {
	return validateHike(data, hikeSchema)
}

// ValidateHikeInput is ValidateHikeSchema for raw request bodies. Distance,
// elevation and duration may also be text such as "12.3 km", which
// ProcessHikeData parses later.
func ValidateHikeInput(data map[string]any) Result {
	return validateHike(data, hikeInputSchema)
}

func validateHike(data map[string]any, s schema) Result {
	if data == nil {
		return invalid("Hike data must be an object")
	}
	errs := s.check(data)

	if d, ok := data["difficulty"].(string); ok && !oneOf(d, difficulties) {
		errs = append(errs, "Difficulty must be one of: "+strings.Join(difficulties, ", "))
	}
	if s, ok := data["status"].(string); ok && !oneOf(s, statuses) {
		errs = append(errs, "Status must be one of: "+strings.Join(statuses, ", "))
	}

	for i, wp := range objectList(data["waypoints"]) {
		for _, e := range ValidateWaypoint(wp).Errors {
			errs = append(errs, fmt.Sprintf("Waypoint %d: %s", i+1, e))
		}
	}
	for _, key := range []string{"startLocation", "endLocation"} {
		loc, ok := data[key].(map[string]any)
		if !ok {
			continue
		}
		for _, e := range ValidateLocation(loc).Errors {
			errs = append(errs, key+": "+e)
		}
	}
	for i, p := range objectList(data["gpsTrack"]) {
		for _, e := range ValidateLocation(p).Errors {
			errs = append(errs, fmt.Sprintf("GPS point %d: %s", i+1, e))
		}
	}
	return newResult(errs)
}

// ValidateHikeData applies the business rules a hike must satisfy before it
// is stored. Numeric fields are judged after tolerant parsing.
func ValidateHikeData(data map[string]any) Result {
	if data == nil {
		return invalid("Hike data must be an object")
	}
	var errs []string
	if isBlank(data["title"]) {
		errs = append(errs, "Title is required")
	}
	if isBlank(data["location"]) {
		errs = append(errs, "Location is required")
	}
	if v, ok := data["distance"]; ok && v != nil && ParseDistance(v) < 0 {
		errs = append(errs, "Distance must be positive")
	}
	if v, ok := data["elevation"]; ok && v != nil && ParseElevation(v) < -500 {
		errs = append(errs, "Elevation seems unrealistic")
	}
	if v, ok := data["difficulty"]; ok && v != nil {
		if d, isStr := v.(string); !isStr || !oneOf(d, difficulties) {
			errs = append(errs, "Difficulty must be one of: "+strings.Join(difficulties, ", "))
		}
	}
	return newResult(errs)
}

func ValidateUserSchema(data map[string]any) Result {
	if data == nil {
		return invalid("User data must be an object")
	}
	return newResult(userSchema.check(data))
}

// ValidateUserData checks registration and profile input. The password is
// only ever seen at registration and is not part of the stored record.
func ValidateUserData(data map[string]any) Result {
	if data == nil {
		return invalid("User data must be an object")
	}
	var errs []string
	email, _ := data["email"].(string)
	switch {
	case strings.TrimSpace(email) == "":
		errs = append(errs, "Email is required")
	case !strings.Contains(email, "@"):
		errs = append(errs, "Email must be valid")
	}
	if isBlank(data["displayName"]) {
		errs = append(errs, "Display name is required")
	}
	if v, ok := data["password"]; ok && v != nil {
		if pw, isStr := v.(string); !isStr || len(pw) < 6 {
			errs = append(errs, "Password must be at least 6 characters")
		}
	}
	return newResult(errs)
}

func ValidateWaypoint(data map[string]any) Result {
	if data == nil {
		return invalid("Waypoint must be an object")
	}
	return validateCoordinates(data, waypointSchema)
}

func ValidateLocation(data map[string]any) Result {
	if data == nil {
		return invalid("Location must be an object")
	}
	r := validateCoordinates(data, locationSchema)
	if !r.Valid && len(r.Errors) == 1 && r.Errors[0] == errCoordinatesRequired {
		return r
	}
	if acc, ok := asNumber(data["accuracy"]); ok && acc < 0 {
		r.Errors = append(r.Errors, "Accuracy must be non-negative")
		r.Valid = false
	}
	return r
}

const errCoordinatesRequired = "Latitude and longitude are required"

func validateCoordinates(data map[string]any, s schema) Result {
	if data["latitude"] == nil || data["longitude"] == nil {
		return invalid(errCoordinatesRequired)
	}
	errs := s.check(data)
	if lat, ok := asNumber(data["latitude"]); ok && (lat < -90 || lat > 90) {
		errs = append(errs, "Latitude must be between -90 and 90")
	}
	if lng, ok := asNumber(data["longitude"]); ok && (lng < -180 || lng > 180) {
		errs = append(errs, "Longitude must be between -180 and 180")
	}
	return newResult(errs)
}

// ValidateGoalPayload returns nil when the payload is acceptable. With
// requireAll false only the fields that are present are checked.
func ValidateGoalPayload(payload map[string]any, requireAll bool) error {
	if payload == nil {
		return fmt.Errorf("goal payload must be an object")
	}
	has := func(k string) bool {
		_, ok := payload[k]
		return ok
	}

	if requireAll || has("title") {
		if isBlank(payload["title"]) {
			return fmt.Errorf("title is required")
		}
	}
	if requireAll || has("category") {
		c, _ := payload["category"].(string)
		if !oneOf(c, goalCategories) {
			return fmt.Errorf("category must be one of: %s", strings.Join(goalCategories, ", "))
		}
	}
	if requireAll || has("targetValue") {
		n, ok := asNumber(payload["targetValue"])
		if !ok || math.IsNaN(n) || n < 0 {
			return fmt.Errorf("targetValue must be a non-negative number")
		}
	}
	if requireAll || has("unit") {
		if isBlank(payload["unit"]) {
			return fmt.Errorf("unit is required")
		}
	}
	if v := payload["description"]; v != nil {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("description must be a string")
		}
	}
	if v, ok := payload["targetDate"].(string); ok && v != "" {
		if _, parsed := parseTimeText(v); !parsed {
			return fmt.Errorf("targetDate must be a valid date")
		}
	}
	return nil
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return !ok || strings.TrimSpace(s) == ""
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// objectList returns the object entries of a raw array, skipping anything else.
func objectList(v any) []map[string]any {
	switch x := v.(type) {
	case []map[string]any:
		return x
	case []any:
		out := make([]map[string]any, 0, len(x))
		for _, item := range x {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// ToDocument turns a typed record into the raw document shape the validators
// and normalizers take, the same shape a decoded JSON body has.
func ToDocument(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil
	}
	return doc
}
