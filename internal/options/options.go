// Package options parses, validates and serializes the options of a single
// local notification request.
package options

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRequest indicates a malformed scheduling request.
var ErrInvalidRequest = errors.New("invalid request")

// Unit is the repeat unit of a trigger.
type Unit string

const (
	UnitNone   Unit = "none"
	UnitSecond Unit = "second"
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
	UnitWeek   Unit = "week"
	UnitMonth  Unit = "month"
	UnitYear   Unit = "year"
)

// IsValid checks if the unit is one of the known repeat units.
func (u Unit) IsValid() bool {
	switch u {
	case UnitNone, UnitSecond, UnitMinute, UnitHour, UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	default:
		return false
	}
}

// String returns the string representation of the unit.
func (u Unit) String() string {
	return string(u)
}

// Trigger describes when a notification fires.
type Trigger struct {
	// At is the next due instant in epoch milliseconds.
	At int64 `json:"at"`
	// Every is the repeat unit; UnitNone for one-shot notifications.
	Every Unit `json:"every"`
	// Interval is the number of units between occurrences.
	Interval int `json:"interval"`
	// Count caps the number of occurrences. Zero means unbounded.
	Count int `json:"count"`
	// Occurrence is the number of times the notification already fired.
	Occurrence int `json:"occurrence"`
	// Extra holds trigger fields outside the fixed schema, such as region
	// triggers other platforms understand.
	Extra map[string]json.RawMessage `json:"-"`
}

var triggerFields = map[string]bool{
	"at":         true,
	"every":      true,
	"interval":   true,
	"count":      true,
	"occurrence": true,
}

// requestTriggerFields are the trigger keys a request may use.
var requestTriggerFields = map[string]bool{
	"at":         true,
	"firstAt":    true,
	"date":       true,
	"every":      true,
	"in":         true,
	"interval":   true,
	"count":      true,
	"occurrence": true,
}

// maxSpan bounds the length of one repeat interval and of relative
// triggers so every step fits in a time.Duration.
const maxSpan = 100 * 366 * 24 * time.Hour

// MarshalJSON implements json.Marshaler, re-emitting unknown fields.
func (t Trigger) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Extra)+5)
	for k, v := range t.Extra {
		out[k] = v
	}
	out["at"] = t.At
	out["every"] = t.Every
	out["interval"] = t.Interval
	out["count"] = t.Count
	out["occurrence"] = t.Occurrence
	return encode(out)
}

// UnmarshalJSON implements json.Unmarshaler, keeping unknown fields.
func (t *Trigger) UnmarshalJSON(data []byte) error {
	type plain Trigger
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	p.Extra = extraFields(fields, triggerFields)
	*t = Trigger(p)
	return nil
}

// Time returns the due instant as time.Time.
func (t Trigger) Time() time.Time {
	return time.UnixMilli(t.At)
}

// IsRepeating reports whether the trigger has a repeat rule.
func (t Trigger) IsRepeating() bool {
	return t.Every != UnitNone && t.Every != "" && t.Interval >= 1
}

// Next returns the first occurrence strictly after the given instant,
// stepping from At by the repeat rule. It reports false for one-shot
// triggers.
func (t Trigger) Next(after time.Time) (time.Time, bool) {
	if !t.IsRepeating() {
		return time.Time{}, false
	}
	next := t.Time()
	if d, fixed := t.step(); fixed {
		if d <= 0 {
			return time.Time{}, false
		}
		for !next.After(after) {
			// Jump over every missed interval at once. The gap saturates
			// past ~292 years, so cap the jump and keep stepping.
			missed := after.Sub(next)/d + 1
			if limit := time.Duration(math.MaxInt64) / d; missed > limit {
				missed = limit
			}
			next = next.Add(missed * d)
		}
		return next, true
	}
	for !next.After(after) {
		next = t.addCalendar(next)
	}
	return next, true
}

// step returns the fixed duration of one interval for units that have one.
func (t Trigger) step() (time.Duration, bool) {
	unit, fixed := t.Every.duration()
	if !fixed {
		return 0, false
	}
	return time.Duration(t.Interval) * unit, true
}

// duration returns the length of one unit when it is fixed.
func (u Unit) duration() (time.Duration, bool) {
	switch u {
	case UnitSecond:
		return time.Second, true
	case UnitMinute:
		return time.Minute, true
	case UnitHour:
		return time.Hour, true
	case UnitDay:
		return 24 * time.Hour, true
	case UnitWeek:
		return 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// maxInterval is the largest interval of the unit that stays within maxSpan.
func (u Unit) maxInterval() int64 {
	switch u {
	case UnitMonth:
		return int64(maxSpan / (31 * 24 * time.Hour))
	case UnitYear:
		return int64(maxSpan / (366 * 24 * time.Hour))
	}
	if d, ok := u.duration(); ok {
		return int64(maxSpan / d)
	}
	return math.MaxInt32
}

func (t Trigger) addCalendar(from time.Time) time.Time {
	switch t.Every {
	case UnitMonth:
		return from.AddDate(0, t.Interval, 0)
	case UnitYear:
		return from.AddDate(t.Interval, 0, 0)
	default:
		return from
	}
}

// Options is the immutable, validated configuration of one notification.
type Options struct {
	ID      int32
	Trigger Trigger
	// Content is the opaque payload handed to renderers.
	Content json.RawMessage
	// Badge is applied to the badge counter when the notification fires.
	Badge int
	// Updated marks a reschedule of an existing notification.
	Updated bool
	// Extra holds every field outside the fixed schema.
	Extra map[string]json.RawMessage
}

// IsRepeating reports whether the notification re-arms after firing.
func (o Options) IsRepeating() bool {
	return o.Trigger.IsRepeating()
}

// Exhausted reports whether a repeating notification reached its count.
func (o Options) Exhausted() bool {
	return o.Trigger.Count > 0 && o.Trigger.Occurrence >= o.Trigger.Count
}

// Pending reports whether an occurrence is still to fire: a one-shot that
// has not fired, or a repeating notification that is not exhausted.
func (o Options) Pending() bool {
	if o.IsRepeating() {
		return !o.Exhausted()
	}
	return o.Trigger.Occurrence == 0
}

// Key returns the decimal string form of the identifier.
func (o Options) Key() string {
	return strconv.FormatInt(int64(o.ID), 10)
}

// WithTrigger returns a copy of the options with the trigger replaced.
func (o Options) WithTrigger(t Trigger) Options {
	o.Trigger = t
	return o
}

var knownFields = map[string]bool{
	"id":      true,
	"trigger": true,
	"content": true,
	"badge":   true,
	"updated": true,
}

// Parse builds Options from a scheduling request. Relative triggers are
// resolved against now.
func Parse(raw []byte, now time.Time) (Options, error) {
	fields, err := splitFields(raw)
	if err != nil {
		return Options{}, err
	}
	id, err := parseID(fields["id"])
	if err != nil {
		return Options{}, err
	}
	trigger, err := parseRequestTrigger(fields, now)
	if err != nil {
		return Options{}, err
	}
	opts := Options{ID: id, Trigger: trigger}
	// Request-level trigger aliases are folded into the trigger.
	for _, alias := range []string{"at", "firstAt", "date", "every", "in"} {
		delete(fields, alias)
	}
	if err := opts.fill(fields); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Decode restores Options from a persisted record.
func Decode(raw []byte) (Options, error) {
	fields, err := splitFields(raw)
	if err != nil {
		return Options{}, err
	}
	id, err := parseID(fields["id"])
	if err != nil {
		return Options{}, err
	}
	rt, ok := fields["trigger"]
	if !ok {
		return Options{}, fmt.Errorf("%w: trigger is required", ErrInvalidRequest)
	}
	var trigger Trigger
	if err := json.Unmarshal(rt, &trigger); err != nil {
		return Options{}, fmt.Errorf("%w: trigger: %v", ErrInvalidRequest, err)
	}
	if err := validateTrigger(&trigger); err != nil {
		return Options{}, err
	}
	opts := Options{ID: id, Trigger: trigger}
	if err := opts.fill(fields); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// fill copies content, badge, updated and unknown fields from a raw field
// map into the options.
func (o *Options) fill(fields map[string]json.RawMessage) error {
	if rc, ok := fields["content"]; ok && !isNull(rc) {
		o.Content = rc
	}
	if rb, ok := fields["badge"]; ok && !isNull(rb) {
		n, err := parseInt(rb)
		if err != nil || n < 0 || n > math.MaxInt32 {
			return fmt.Errorf("%w: badge must be a non-negative integer", ErrInvalidRequest)
		}
		o.Badge = int(n)
	}
	if ru, ok := fields["updated"]; ok && !isNull(ru) {
		if err := json.Unmarshal(ru, &o.Updated); err != nil {
			return fmt.Errorf("%w: updated must be a boolean", ErrInvalidRequest)
		}
	}
	o.Extra = extraFields(fields, knownFields)
	return nil
}

// extraFields returns the fields outside known, or nil when there are none.
func extraFields(fields map[string]json.RawMessage, known map[string]bool) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	for k, v := range fields {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra
}

// Serialize returns the persisted JSON form of the options.
func (o Options) Serialize() ([]byte, error) {
	out := make(map[string]any, len(o.Extra)+5)
	for k, v := range o.Extra {
		out[k] = v
	}
	trigger := o.Trigger
	if trigger.Every == "" {
		trigger.Every = UnitNone
	}
	out["id"] = o.ID
	out["trigger"] = trigger
	if len(o.Content) > 0 {
		out["content"] = o.Content
	}
	out["badge"] = o.Badge
	out["updated"] = o.Updated

	data, err := encode(out)
	if err != nil {
		return nil, fmt.Errorf("options: serialize id %d: %w", o.ID, err)
	}
	return data, nil
}

// encode marshals v without HTML escaping so opaque payloads keep their
// bytes.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalJSON implements json.Marshaler, re-emitting unknown fields.
func (o Options) MarshalJSON() ([]byte, error) {
	return o.Serialize()
}

// UnmarshalJSON implements json.Unmarshaler using Decode.
func (o *Options) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*o = decoded
	return nil
}

// Merge shallow-merges a JSON patch over the options and marks the result
// as updated. The identifier cannot be changed by the patch.
func (o Options) Merge(patch []byte, now time.Time) (Options, error) {
	base, err := o.Serialize()
	if err != nil {
		return Options{}, err
	}
	fields, err := splitFields(base)
	if err != nil {
		return Options{}, err
	}
	updates, err := splitFields(patch)
	if err != nil {
		return Options{}, err
	}
	for k, v := range updates {
		fields[k] = v
	}
	_, newTrigger := updates["trigger"]
	for _, alias := range []string{"at", "firstAt", "date", "every", "in"} {
		if _, ok := updates[alias]; ok {
			newTrigger = true
		}
	}
	if newTrigger {
		// A new schedule starts counting occurrences from scratch.
		if _, ok := updates["trigger"]; !ok {
			delete(fields, "trigger")
		}
	}
	fields["id"] = json.RawMessage(o.Key())
	fields["updated"] = json.RawMessage("true")
	merged, err := json.Marshal(fields)
	if err != nil {
		return Options{}, fmt.Errorf("options: merge: %w", err)
	}
	return Parse(merged, now)
}

func splitFields(raw []byte) (map[string]json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: request must be an object", ErrInvalidRequest)
	}
	for k, v := range fields {
		fields[k] = compact(v)
	}
	return fields, nil
}

func compact(v json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return v
	}
	return json.RawMessage(buf.Bytes())
}

func isNull(v json.RawMessage) bool {
	return len(v) == 0 || string(v) == "null"
}

func parseID(raw json.RawMessage) (int32, error) {
	if isNull(raw) {
		return 0, fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	n, err := parseInt(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: id must be numeric", ErrInvalidRequest)
	}
	if n <= 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: id %d out of range", ErrInvalidRequest, n)
	}
	return int32(n), nil
}

// parseInt accepts a JSON integer or a string holding one.
func parseInt(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	var f json.Number
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f.Int64()
}

func parseRequestTrigger(fields map[string]json.RawMessage, now time.Time) (Trigger, error) {
	t := map[string]json.RawMessage{}
	if rt, ok := fields["trigger"]; ok && !isNull(rt) {
		if err := json.Unmarshal(rt, &t); err != nil {
			return Trigger{}, fmt.Errorf("%w: trigger must be an object", ErrInvalidRequest)
		}
	}
	at := firstOf(t, "at", "firstAt", "date")
	if at == nil {
		at = firstOf(fields, "at", "firstAt", "date")
	}
	every := firstOf(t, "every")
	if every == nil {
		every = firstOf(fields, "every")
	}
	in := firstOf(t, "in")
	if in == nil {
		in = firstOf(fields, "in")
	}

	var trigger Trigger
	trigger.Every = UnitNone
	if every != nil {
		var unit string
		if err := json.Unmarshal(every, &unit); err != nil {
			return Trigger{}, fmt.Errorf("%w: trigger.every must be a string", ErrInvalidRequest)
		}
		trigger.Every = Unit(strings.ToLower(unit))
	}
	trigger.Interval = 1
	if ri := firstOf(t, "interval"); ri != nil {
		n, err := parseInt(ri)
		if err != nil {
			return Trigger{}, fmt.Errorf("%w: trigger.interval must be numeric", ErrInvalidRequest)
		}
		if n > math.MaxInt32 || n < math.MinInt32 {
			return Trigger{}, fmt.Errorf("%w: trigger.interval %d out of range", ErrInvalidRequest, n)
		}
		trigger.Interval = int(n)
	}
	if rc := firstOf(t, "count"); rc != nil {
		n, err := parseInt(rc)
		if err != nil || n < 0 {
			return Trigger{}, fmt.Errorf("%w: trigger.count must be a non-negative integer", ErrInvalidRequest)
		}
		trigger.Count = int(n)
	}
	if ro := firstOf(t, "occurrence"); ro != nil {
		n, err := parseInt(ro)
		if err != nil || n < 0 {
			return Trigger{}, fmt.Errorf("%w: trigger.occurrence must be a non-negative integer", ErrInvalidRequest)
		}
		trigger.Occurrence = int(n)
	}

	switch {
	case at != nil:
		ms, err := parseInt(at)
		if err != nil {
			return Trigger{}, fmt.Errorf("%w: trigger.at must be epoch milliseconds", ErrInvalidRequest)
		}
		trigger.At = ms
	case in != nil:
		secs, err := parseInt(in)
		if err != nil || secs < 0 {
			return Trigger{}, fmt.Errorf("%w: trigger.in must be non-negative seconds", ErrInvalidRequest)
		}
		if secs > int64(maxSpan/time.Second) {
			return Trigger{}, fmt.Errorf("%w: trigger.in %d exceeds %d seconds", ErrInvalidRequest, secs, int64(maxSpan/time.Second))
		}
		trigger.At = now.Add(time.Duration(secs) * time.Second).UnixMilli()
	case trigger.Every != UnitNone:
		if err := validateRule(trigger); err != nil {
			return Trigger{}, err
		}
		start := trigger
		start.At = now.UnixMilli()
		next, _ := start.Next(now)
		trigger.At = next.UnixMilli()
	default:
		return Trigger{}, fmt.Errorf("%w: trigger is required", ErrInvalidRequest)
	}
	trigger.Extra = extraFields(t, requestTriggerFields)

	if err := validateTrigger(&trigger); err != nil {
		return Trigger{}, err
	}
	return trigger, nil
}

func validateRule(t Trigger) error {
	if !t.Every.IsValid() {
		return fmt.Errorf("%w: invalid repeat unit '%s', must be one of: none, second, minute, hour, day, week, month, year", ErrInvalidRequest, t.Every)
	}
	if t.Every == UnitNone {
		return nil
	}
	if t.Interval < 1 {
		return fmt.Errorf("%w: trigger.interval must be >= 1", ErrInvalidRequest)
	}
	if limit := t.Every.maxInterval(); int64(t.Interval) > limit {
		return fmt.Errorf("%w: trigger.interval must be <= %d for unit '%s'", ErrInvalidRequest, limit, t.Every)
	}
	return nil
}

func validateTrigger(t *Trigger) error {
	if t.Every == "" {
		t.Every = UnitNone
	}
	if err := validateRule(*t); err != nil {
		return err
	}
	if t.At <= 0 {
		return fmt.Errorf("%w: trigger.at must be a positive epoch milliseconds value", ErrInvalidRequest)
	}
	if t.Count < 0 || t.Occurrence < 0 {
		return fmt.Errorf("%w: trigger counters must be non-negative", ErrInvalidRequest)
	}
	return nil
}

func firstOf(m map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := m[k]; ok && !isNull(v) {
			return v
		}
	}
	return nil
}
