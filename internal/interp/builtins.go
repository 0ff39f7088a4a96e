package interp

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/ldc/internal/decimal"
)

// registerBuiltins builds the closed, $-prefixed builtin table (spec
// §4.5). Every entry is looked up by name once and reused for the life
// of the Interpreter.
func registerBuiltins() map[string]*Function {
	b := map[string]*Function{}
	reg := func(name string, fn BuiltinFunc) {
		b[name] = &Function{Name: name, Arity: -1, Builtin: fn}
	}

	// Math
	reg("$sqrt", bSqrt)
	reg("$abs", bAbs)
	reg("$round", bRound)
	reg("$floor", bFloor)
	reg("$ceil", bCeil)
	reg("$pow", bPow)
	reg("$log", bLog)
	reg("$log10", bLog10)
	reg("$sin", bSin)
	reg("$cos", bCos)
	reg("$tan", bTan)
	reg("$pi", bPi)
	reg("$e", bE)
	reg("$random", bRandom)

	// String
	reg("$lower", bLower)
	reg("$upper", bUpper)
	reg("$trim", bTrim)
	reg("$len", bLen)
	reg("$substr", bSubstr)
	reg("$replace", bReplace)
	reg("$split", bSplit)
	reg("$join", bJoin)
	reg("$startsWith", bStartsWith)
	reg("$endsWith", bEndsWith)
	reg("$contains", bContains)
	reg("$padStart", bPadStart)
	reg("$padEnd", bPadEnd)

	// Format
	reg("$currency", bCurrency)
	reg("$number", bNumber)
	reg("$percent", bPercent)
	reg("$compact", bCompact)

	// Convert
	reg("$convert", bConvert)

	// Date
	reg("$now", bNow)
	reg("$today", bToday)
	reg("$year", bYear)
	reg("$month", bMonth)
	reg("$day", bDay)
	reg("$hour", bHour)
	reg("$minute", bMinute)
	reg("$dayOfWeek", bDayOfWeek)
	reg("$timestamp", bTimestamp)
	reg("$formatDate", bFormatDate)
	reg("$daysBetween", bDaysBetween)
	reg("$addDays", bAddDays)
	reg("$addMonths", bAddMonths)

	// Utility
	reg("$if", bIf)
	reg("$default", bDefault)
	reg("$coalesce", bCoalesce)
	reg("$type", bType)
	reg("$isNull", bIsNull)
	reg("$isNumber", bIsNumber)
	reg("$isString", bIsString)
	reg("$isBool", bIsBool)
	reg("$isArray", bIsArray)
	reg("$toNumber", bToNumber)
	reg("$toString", bToString)
	reg("$toBool", bToBool)

	// Array
	reg("$first", bFirst)
	reg("$last", bLast)
	reg("$at", bAt)
	reg("$slice", bSlice)
	reg("$reverse", bReverse)
	reg("$sort", bSort)
	reg("$unique", bUnique)
	reg("$flatten", bFlatten)
	reg("$count", bCount)
	reg("$sum", bSum)
	reg("$avg", bAvg)
	reg("$min", bMin)
	reg("$max", bMax)

	return b
}

// registerAggregates resolves the bare aggregate identifiers (sum, avg,
// min, max) that the name-resolution order checks before the $-prefixed
// table (spec §4.4).
func registerAggregates() map[string]*Function {
	return map[string]*Function{
		"sum": {Name: "sum", Arity: -1, Builtin: bSum},
		"avg": {Name: "avg", Arity: -1, Builtin: bAvg},
		"min": {Name: "min", Arity: -1, Builtin: bMin},
		"max": {Name: "max", Arity: -1, Builtin: bMax},
	}
}

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined{}
}

func wantDecimal(v Value, who string) (decimal.Decimal, error) {
	d, ok := AsDecimal(v)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%s: %w: expected number, got %s", who, ErrType, TypeName(v))
	}
	return d, nil
}

func wantString(v Value, who string) (string, error) {
	s, ok := v.(Str)
	if !ok {
		return "", fmt.Errorf("%s: %w: expected string, got %s", who, ErrType, TypeName(v))
	}
	return string(s), nil
}

func wantArray(v Value, who string) (Array, error) {
	a, ok := v.(Array)
	if !ok {
		return nil, fmt.Errorf("%s: %w: expected array, got %s", who, ErrType, TypeName(v))
	}
	return a, nil
}

// ---- Math ----

func bSqrt(it *Interpreter, this Value, args []Value) (Value, error) {
	d, err := wantDecimal(arg(args, 0), "$sqrt")
	if err != nil {
		return nil, err
	}
	r, err := decimal.Sqrt(d)
	if err != nil {
		return nil, err
	}
	return Dec{D: r}, nil
}

func bAbs(it *Interpreter, this Value, args []Value) (Value, error) {
	v := arg(args, 0)
	if q, ok := v.(Quantity); ok {
		q.Q.Magnitude = decimal.Abs(q.Q.Magnitude)
		return q, nil
	}
	d, err := wantDecimal(v, "$abs")
	if err != nil {
		return nil, err
	}
	return wrapNumeric(decimal.Abs(d)), nil
}

func bRound(it *Interpreter, this Value, args []Value) (Value, error) {
	d, err := wantDecimal(arg(args, 0), "$round")
	if err != nil {
		return nil, err
	}
	dp := int32(0)
	if len(args) > 1 {
		dpd, err := wantDecimal(args[1], "$round")
		if err != nil {
			return nil, err
		}
		i, _ := dpd.Int64()
		dp = int32(i)
	}
	return wrapNumeric(decimal.Round(d, dp)), nil
}

func bFloor(it *Interpreter, this Value, args []Value) (Value, error) {
	d, err := wantDecimal(arg(args, 0), "$floor")
	if err != nil {
		return nil, err
	}
	return wrapNumeric(decimal.Floor(d)), nil
}

func bCeil(it *Interpreter, this Value, args []Value) (Value, error) {
	d, err := wantDecimal(arg(args, 0), "$ceil")
	if err != nil {
		return nil, err
	}
	return wrapNumeric(decimal.Ceil(d)), nil
}

func bPow(it *Interpreter, this Value, args []Value) (Value, error) {
	base, err := wantDecimal(arg(args, 0), "$pow")
	if err != nil {
		return nil, err
	}
	exp, err := wantDecimal(arg(args, 1), "$pow")
	if err != nil {
		return nil, err
	}
	r, err := decimal.Pow(base, exp)
	if err != nil {
		return nil, err
	}
	return wrapNumeric(r), nil
}

func bLog(it *Interpreter, this Value, args []Value) (Value, error) {
	d, err := wantDecimal(arg(args, 0), "$log")
	if err != nil {
		return nil, err
	}
	r, err := decimal.Ln(d)
	if err != nil {
		return nil, err
	}
	return Dec{D: r}, nil
}

func bLog10(it *Interpreter, this Value, args []Value) (Value, error) {
	d, err := wantDecimal(arg(args, 0), "$log10")
	if err != nil {
		return nil, err
	}
	ln, err := decimal.Ln(d)
	if err != nil {
		return nil, err
	}
	ln10, _ := decimal.Ln(decimal.New(10))
	r, err := decimal.Div(ln, ln10)
	if err != nil {
		return nil, err
	}
	return Dec{D: r}, nil
}

// trig builtins round-trip through float64; they are presentation helpers,
// never used in the exact decimal arithmetic path.
func bSin(it *Interpreter, this Value, args []Value) (Value, error) { return trig(args, math.Sin, "$sin") }
func bCos(it *Interpreter, this Value, args []Value) (Value, error) { return trig(args, math.Cos, "$cos") }
func bTan(it *Interpreter, this Value, args []Value) (Value, error) { return trig(args, math.Tan, "$tan") }

func trig(args []Value, fn func(float64) float64, who string) (Value, error) {
	d, err := wantDecimal(arg(args, 0), who)
	if err != nil {
		return nil, err
	}
	f, err := d.Float64()
	if err != nil {
		return nil, err
	}
	r, err := decimal.Parse(strconv.FormatFloat(fn(f), 'f', -1, 64))
	if err != nil {
		return nil, err
	}
	return Dec{D: r}, nil
}

func bPi(it *Interpreter, this Value, args []Value) (Value, error) {
	d, _ := decimal.Parse("3.14159265358979323846")
	return Dec{D: d}, nil
}

func bE(it *Interpreter, this Value, args []Value) (Value, error) {
	d, _ := decimal.Parse("2.71828182845904523536")
	return Dec{D: d}, nil
}

func bRandom(it *Interpreter, this Value, args []Value) (Value, error) {
	// Deterministic by design: document evaluation must be reproducible
	// (spec §6), so $random is seeded from the fixed evaluation clock
	// rather than a process RNG.
	seed := it.Now.UnixNano()
	x := (seed*2654435761 + 1) & 0x7fffffff
	f := float64(x%1000000) / 1000000.0
	d, _ := decimal.Parse(strconv.FormatFloat(f, 'f', -1, 64))
	return Dec{D: d}, nil
}

// ---- String ----

func bLower(it *Interpreter, this Value, args []Value) (Value, error) {
	s, err := wantString(arg(args, 0), "$lower")
	if err != nil {
		return nil, err
	}
	return Str(strings.ToLower(s)), nil
}

func bUpper(it *Interpreter, this Value, args []Value) (Value, error) {
	s, err := wantString(arg(args, 0), "$upper")
	if err != nil {
		return nil, err
	}
	return Str(strings.ToUpper(s)), nil
}

func bTrim(it *Interpreter, this Value, args []Value) (Value, error) {
	s, err := wantString(arg(args, 0), "$trim")
	if err != nil {
		return nil, err
	}
	return Str(strings.TrimSpace(s)), nil
}

func bLen(it *Interpreter, this Value, args []Value) (Value, error) {
	switch v := arg(args, 0).(type) {
	case Str:
		return Int(len([]rune(string(v)))), nil
	case Array:
		return Int(len(v)), nil
	default:
		return nil, fmt.Errorf("$len: %w: expected string or array, got %s", ErrType, TypeName(v))
	}
}

func bSubstr(it *Interpreter, this Value, args []Value) (Value, error) {
	s, err := wantString(arg(args, 0), "$substr")
	if err != nil {
		return nil, err
	}
	start, err := wantDecimal(arg(args, 1), "$substr")
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	si, _ := start.Int64()
	if si < 0 {
		si += int64(len(runes))
	}
	si = clamp(si, 0, int64(len(runes)))
	ei := int64(len(runes))
	if len(args) > 2 {
		ln, err := wantDecimal(args[2], "$substr")
		if err != nil {
			return nil, err
		}
		lv, _ := ln.Int64()
		ei = clamp(si+lv, si, int64(len(runes)))
	}
	return Str(string(runes[si:ei])), nil
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func bReplace(it *Interpreter, this Value, args []Value) (Value, error) {
	s, err := wantString(arg(args, 0), "$replace")
	if err != nil {
		return nil, err
	}
	find, err := wantString(arg(args, 1), "$replace")
	if err != nil {
		return nil, err
	}
	repl, err := wantString(arg(args, 2), "$replace")
	if err != nil {
		return nil, err
	}
	return Str(strings.ReplaceAll(s, find, repl)), nil
}

func bSplit(it *Interpreter, this Value, args []Value) (Value, error) {
	s, err := wantString(arg(args, 0), "$split")
	if err != nil {
		return nil, err
	}
	sep, err := wantString(arg(args, 1), "$split")
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, sep)
	out := make(Array, len(parts))
	for i, p := range parts {
		out[i] = Str(p)
	}
	return out, nil
}

func bJoin(it *Interpreter, this Value, args []Value) (Value, error) {
	a, err := wantArray(arg(args, 0), "$join")
	if err != nil {
		return nil, err
	}
	sep, err := wantString(arg(args, 1), "$join")
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = stringify(v)
	}
	return Str(strings.Join(parts, sep)), nil
}

func bStartsWith(it *Interpreter, this Value, args []Value) (Value, error) {
	s, err := wantString(arg(args, 0), "$startsWith")
	if err != nil {
		return nil, err
	}
	p, err := wantString(arg(args, 1), "$startsWith")
	if err != nil {
		return nil, err
	}
	return Bool(strings.HasPrefix(s, p)), nil
}

func bEndsWith(it *Interpreter, this Value, args []Value) (Value, error) {
	s, err := wantString(arg(args, 0), "$endsWith")
	if err != nil {
		return nil, err
	}
	p, err := wantString(arg(args, 1), "$endsWith")
	if err != nil {
		return nil, err
	}
	return Bool(strings.HasSuffix(s, p)), nil
}

func bContains(it *Interpreter, this Value, args []Value) (Value, error) {
	s, err := wantString(arg(args, 0), "$contains")
	if err != nil {
		return nil, err
	}
	p, err := wantString(arg(args, 1), "$contains")
	if err != nil {
		return nil, err
	}
	return Bool(strings.Contains(s, p)), nil
}

func bPadStart(it *Interpreter, this Value, args []Value) (Value, error) {
	return pad(args, true)
}

func bPadEnd(it *Interpreter, this Value, args []Value) (Value, error) {
	return pad(args, false)
}

func pad(args []Value, start bool) (Value, error) {
	s, err := wantString(arg(args, 0), "$pad")
	if err != nil {
		return nil, err
	}
	ld, err := wantDecimal(arg(args, 1), "$pad")
	if err != nil {
		return nil, err
	}
	want, _ := ld.Int64()
	ch := " "
	if len(args) > 2 {
		c, err := wantString(args[2], "$pad")
		if err != nil {
			return nil, err
		}
		if c != "" {
			ch = c
		}
	}
	runes := []rune(s)
	need := int(want) - len(runes)
	if need <= 0 {
		return Str(s), nil
	}
	padding := strings.Repeat(ch, need)
	if len([]rune(padding)) > need {
		padding = string([]rune(padding)[:need])
	}
	if start {
		return Str(padding + s), nil
	}
	return Str(s + padding), nil
}

// ---- Format ----

func bCurrency(it *Interpreter, this Value, args []Value) (Value, error) {
	d, err := wantDecimal(arg(args, 0), "$currency")
	if err != nil {
		return nil, err
	}
	code := "USD"
	if len(args) > 1 {
		code, err = wantString(args[1], "$currency")
		if err != nil {
			return nil, err
		}
	}
	lang := language.AmericanEnglish
	if len(args) > 2 {
		locStr, err := wantString(args[2], "$currency")
		if err != nil {
			return nil, err
		}
		if tag, err := language.Parse(locStr); err == nil {
			lang = tag
		}
	}
	f, err := d.Float64()
	if err != nil {
		return nil, err
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("$currency: unknown currency code %q", code)
	}
	amt := currency.NarrowSymbol(unit.Amount(f))
	p := message.NewPrinter(lang)
	return Str(p.Sprint(amt)), nil
}

func bNumber(it *Interpreter, this Value, args []Value) (Value, error) {
	d, err := wantDecimal(arg(args, 0), "$number")
	if err != nil {
		return nil, err
	}
	dp := int32(-1)
	if len(args) > 1 {
		dpd, err := wantDecimal(args[1], "$number")
		if err != nil {
			return nil, err
		}
		i, _ := dpd.Int64()
		dp = int32(i)
	}
	if dp >= 0 {
		d = decimal.Round(d, dp)
	}
	lang := language.AmericanEnglish
	if len(args) > 2 {
		locStr, err := wantString(args[2], "$number")
		if err == nil {
			if tag, perr := language.Parse(locStr); perr == nil {
				lang = tag
			}
		}
	}
	f, err := d.Float64()
	if err != nil {
		return nil, err
	}
	p := message.NewPrinter(lang)
	return Str(p.Sprintf("%v", f)), nil
}

func bPercent(it *Interpreter, this Value, args []Value) (Value, error) {
	d, err := wantDecimal(arg(args, 0), "$percent")
	if err != nil {
		return nil, err
	}
	pct, err := decimal.Mul(d, decimal.New(100))
	if err != nil {
		return nil, err
	}
	dp := int32(0)
	if len(args) > 1 {
		dpd, err := wantDecimal(args[1], "$percent")
		if err != nil {
			return nil, err
		}
		i, _ := dpd.Int64()
		dp = int32(i)
	}
	pct = decimal.Round(pct, dp)
	return Str(pct.String() + "%"), nil
}

func bCompact(it *Interpreter, this Value, args []Value) (Value, error) {
	d, err := wantDecimal(arg(args, 0), "$compact")
	if err != nil {
		return nil, err
	}
	f, err := d.Float64()
	if err != nil {
		return nil, err
	}
	abs := math.Abs(f)
	var suffix string
	var div float64 = 1
	switch {
	case abs >= 1e9:
		suffix, div = "B", 1e9
	case abs >= 1e6:
		suffix, div = "M", 1e6
	case abs >= 1e3:
		suffix, div = "K", 1e3
	}
	scaled := f / div
	return Str(strconv.FormatFloat(scaled, 'f', 1, 64) + suffix), nil
}

// ---- Convert ----

func bConvert(it *Interpreter, this Value, args []Value) (Value, error) {
	d, err := wantDecimal(arg(args, 0), "$convert")
	if err != nil {
		return nil, err
	}
	from, err := wantString(arg(args, 1), "$convert")
	if err != nil {
		return nil, err
	}
	to, err := wantString(arg(args, 2), "$convert")
	if err != nil {
		return nil, err
	}
	fu, ok := it.Units.Get(from)
	if !ok {
		return nil, fmt.Errorf("$convert: unknown unit %q", from)
	}
	tu, ok := it.Units.Get(to)
	if !ok {
		return nil, fmt.Errorf("$convert: unknown unit %q", to)
	}
	if !fu.Dim.Equal(tu.Dim) {
		return nil, fmt.Errorf("$convert: %w: %s to %s", ErrDimMismatch, from, to)
	}
	base := fu.ToBase(d)
	return Dec{D: tu.FromBase(base)}, nil
}

// ---- Date ----

func bNow(it *Interpreter, this Value, args []Value) (Value, error) {
	return Timestamp{T: it.Now}, nil
}

func bToday(it *Interpreter, this Value, args []Value) (Value, error) {
	t := it.Now.UTC()
	return Timestamp{T: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}, nil
}

func asTime(v Value, who string) (time.Time, error) {
	ts, ok := v.(Timestamp)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %w: expected timestamp, got %s", who, ErrType, TypeName(v))
	}
	return ts.T, nil
}

func bYear(it *Interpreter, this Value, args []Value) (Value, error) {
	t, err := asTime(arg(args, 0), "$year")
	if err != nil {
		return nil, err
	}
	return Int(t.Year()), nil
}

func bMonth(it *Interpreter, this Value, args []Value) (Value, error) {
	t, err := asTime(arg(args, 0), "$month")
	if err != nil {
		return nil, err
	}
	return Int(int(t.Month())), nil
}

func bDay(it *Interpreter, this Value, args []Value) (Value, error) {
	t, err := asTime(arg(args, 0), "$day")
	if err != nil {
		return nil, err
	}
	return Int(t.Day()), nil
}

func bHour(it *Interpreter, this Value, args []Value) (Value, error) {
	t, err := asTime(arg(args, 0), "$hour")
	if err != nil {
		return nil, err
	}
	return Int(t.Hour()), nil
}

func bMinute(it *Interpreter, this Value, args []Value) (Value, error) {
	t, err := asTime(arg(args, 0), "$minute")
	if err != nil {
		return nil, err
	}
	return Int(t.Minute()), nil
}

func bDayOfWeek(it *Interpreter, this Value, args []Value) (Value, error) {
	t, err := asTime(arg(args, 0), "$dayOfWeek")
	if err != nil {
		return nil, err
	}
	return Int(int(t.Weekday())), nil
}

func bTimestamp(it *Interpreter, this Value, args []Value) (Value, error) {
	t, err := asTime(arg(args, 0), "$timestamp")
	if err != nil {
		return nil, err
	}
	return Int(t.Unix()), nil
}

func bFormatDate(it *Interpreter, this Value, args []Value) (Value, error) {
	t, err := asTime(arg(args, 0), "$formatDate")
	if err != nil {
		return nil, err
	}
	format := "iso"
	if len(args) > 1 {
		format, err = wantString(args[1], "$formatDate")
		if err != nil {
			return nil, err
		}
	}
	switch format {
	case "iso":
		return Str(t.Format("2006-01-02")), nil
	case "short":
		return Str(t.Format("1/2/06")), nil
	case "medium":
		return Str(t.Format("Jan 2, 2006")), nil
	case "long":
		return Str(t.Format("January 2, 2006")), nil
	case "full":
		return Str(t.Format("Monday, January 2, 2006")), nil
	case "time":
		return Str(t.Format("15:04:05")), nil
	case "relative":
		return Str(relativeFormat(it.Now, t)), nil
	default:
		return Str(t.Format("2006-01-02")), nil
	}
}

func relativeFormat(now, t time.Time) string {
	d := now.Sub(t)
	abs := d
	if abs < 0 {
		abs = -abs
	}
	future := d < 0
	var n int
	var unit string
	switch {
	case abs < time.Minute:
		return "just now"
	case abs < time.Hour:
		n, unit = int(abs/time.Minute), "minute"
	case abs < 24*time.Hour:
		n, unit = int(abs/time.Hour), "hour"
	default:
		n, unit = int(abs/(24*time.Hour)), "day"
	}
	if n != 1 {
		unit += "s"
	}
	if future {
		return fmt.Sprintf("in %d %s", n, unit)
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}

func bDaysBetween(it *Interpreter, this Value, args []Value) (Value, error) {
	a, err := asTime(arg(args, 0), "$daysBetween")
	if err != nil {
		return nil, err
	}
	bb, err := asTime(arg(args, 1), "$daysBetween")
	if err != nil {
		return nil, err
	}
	d := bb.Sub(a).Hours() / 24
	return Int(int64(d)), nil
}

func bAddDays(it *Interpreter, this Value, args []Value) (Value, error) {
	t, err := asTime(arg(args, 0), "$addDays")
	if err != nil {
		return nil, err
	}
	n, err := wantDecimal(arg(args, 1), "$addDays")
	if err != nil {
		return nil, err
	}
	iv, _ := n.Int64()
	return Timestamp{T: t.AddDate(0, 0, int(iv))}, nil
}

func bAddMonths(it *Interpreter, this Value, args []Value) (Value, error) {
	t, err := asTime(arg(args, 0), "$addMonths")
	if err != nil {
		return nil, err
	}
	n, err := wantDecimal(arg(args, 1), "$addMonths")
	if err != nil {
		return nil, err
	}
	iv, _ := n.Int64()
	return Timestamp{T: t.AddDate(0, int(iv), 0)}, nil
}

// ---- Utility ----

func bIf(it *Interpreter, this Value, args []Value) (Value, error) {
	if Truthy(arg(args, 0)) {
		return arg(args, 1), nil
	}
	return arg(args, 2), nil
}

func bDefault(it *Interpreter, this Value, args []Value) (Value, error) {
	v := arg(args, 0)
	if IsNullish(v) {
		return arg(args, 1), nil
	}
	return v, nil
}

func bCoalesce(it *Interpreter, this Value, args []Value) (Value, error) {
	for _, a := range args {
		if !IsNullish(a) {
			return a, nil
		}
	}
	return Null{}, nil
}

func bType(it *Interpreter, this Value, args []Value) (Value, error) {
	return Str(TypeName(arg(args, 0))), nil
}

func bIsNull(it *Interpreter, this Value, args []Value) (Value, error) {
	_, ok := arg(args, 0).(Null)
	return Bool(ok), nil
}

func bIsNumber(it *Interpreter, this Value, args []Value) (Value, error) {
	switch arg(args, 0).(type) {
	case Int, Dec:
		return Bool(true), nil
	}
	return Bool(false), nil
}

func bIsString(it *Interpreter, this Value, args []Value) (Value, error) {
	_, ok := arg(args, 0).(Str)
	return Bool(ok), nil
}

func bIsBool(it *Interpreter, this Value, args []Value) (Value, error) {
	_, ok := arg(args, 0).(Bool)
	return Bool(ok), nil
}

func bIsArray(it *Interpreter, this Value, args []Value) (Value, error) {
	_, ok := arg(args, 0).(Array)
	return Bool(ok), nil
}

func bToNumber(it *Interpreter, this Value, args []Value) (Value, error) {
	v := arg(args, 0)
	switch t := v.(type) {
	case Int, Dec:
		return v, nil
	case Bool:
		if t {
			return Int(1), nil
		}
		return Int(0), nil
	case Str:
		d, err := decimal.Parse(string(t))
		if err != nil {
			return nil, fmt.Errorf("$toNumber: %w: cannot parse %q", ErrType, string(t))
		}
		return wrapNumeric(d), nil
	default:
		return nil, fmt.Errorf("$toNumber: %w: cannot convert %s", ErrType, TypeName(v))
	}
}

func bToString(it *Interpreter, this Value, args []Value) (Value, error) {
	return Str(stringify(arg(args, 0))), nil
}

func bToBool(it *Interpreter, this Value, args []Value) (Value, error) {
	return Bool(Truthy(arg(args, 0))), nil
}

// ---- Array ----

func bFirst(it *Interpreter, this Value, args []Value) (Value, error) {
	a, err := wantArray(arg(args, 0), "$first")
	if err != nil {
		return nil, err
	}
	if len(a) == 0 {
		return Undefined{}, nil
	}
	return a[0], nil
}

func bLast(it *Interpreter, this Value, args []Value) (Value, error) {
	a, err := wantArray(arg(args, 0), "$last")
	if err != nil {
		return nil, err
	}
	if len(a) == 0 {
		return Undefined{}, nil
	}
	return a[len(a)-1], nil
}

func bAt(it *Interpreter, this Value, args []Value) (Value, error) {
	a, err := wantArray(arg(args, 0), "$at")
	if err != nil {
		return nil, err
	}
	idx, err := wantDecimal(arg(args, 1), "$at")
	if err != nil {
		return nil, err
	}
	iv, _ := idx.Int64()
	if iv < 0 {
		iv += int64(len(a))
	}
	if iv < 0 || iv >= int64(len(a)) {
		return Undefined{}, nil
	}
	return a[iv], nil
}

func bSlice(it *Interpreter, this Value, args []Value) (Value, error) {
	a, err := wantArray(arg(args, 0), "$slice")
	if err != nil {
		return nil, err
	}
	start := int64(0)
	if len(args) > 1 {
		d, err := wantDecimal(args[1], "$slice")
		if err != nil {
			return nil, err
		}
		start, _ = d.Int64()
		if start < 0 {
			start += int64(len(a))
		}
	}
	end := int64(len(a))
	if len(args) > 2 {
		d, err := wantDecimal(args[2], "$slice")
		if err != nil {
			return nil, err
		}
		end, _ = d.Int64()
		if end < 0 {
			end += int64(len(a))
		}
	}
	start = clamp(start, 0, int64(len(a)))
	end = clamp(end, start, int64(len(a)))
	out := make(Array, end-start)
	copy(out, a[start:end])
	return out, nil
}

func bReverse(it *Interpreter, this Value, args []Value) (Value, error) {
	a, err := wantArray(arg(args, 0), "$reverse")
	if err != nil {
		return nil, err
	}
	out := make(Array, len(a))
	for i, v := range a {
		out[len(a)-1-i] = v
	}
	return out, nil
}

func bSort(it *Interpreter, this Value, args []Value) (Value, error) {
	a, err := wantArray(arg(args, 0), "$sort")
	if err != nil {
		return nil, err
	}
	out := make(Array, len(a))
	copy(out, a)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		if si, ok := out[i].(Str); ok {
			if sj, ok := out[j].(Str); ok {
				return si < sj
			}
		}
		di, ok1 := AsDecimal(out[i])
		dj, ok2 := AsDecimal(out[j])
		if !ok1 || !ok2 {
			sortErr = fmt.Errorf("$sort: %w: elements must be all numeric or all string", ErrType)
			return false
		}
		return decimal.Cmp(di, dj) < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}

func bUnique(it *Interpreter, this Value, args []Value) (Value, error) {
	a, err := wantArray(arg(args, 0), "$unique")
	if err != nil {
		return nil, err
	}
	var out Array
	for _, v := range a {
		dup := false
		for _, u := range out {
			if equalValue(v, u) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out, nil
}

func bFlatten(it *Interpreter, this Value, args []Value) (Value, error) {
	a, err := wantArray(arg(args, 0), "$flatten")
	if err != nil {
		return nil, err
	}
	var out Array
	for _, v := range a {
		if sub, ok := v.(Array); ok {
			out = append(out, sub...)
		} else {
			out = append(out, v)
		}
	}
	return out, nil
}

func bCount(it *Interpreter, this Value, args []Value) (Value, error) {
	a, err := wantArray(arg(args, 0), "$count")
	if err != nil {
		return nil, err
	}
	return Int(len(a)), nil
}

func numericElems(v Value, who string) ([]decimal.Decimal, error) {
	a, err := wantArray(v, who)
	if err != nil {
		return nil, err
	}
	out := make([]decimal.Decimal, 0, len(a))
	for _, e := range a {
		d, ok := AsDecimal(e)
		if !ok {
			return nil, fmt.Errorf("%s: %w: non-numeric element %s", who, ErrType, TypeName(e))
		}
		out = append(out, d)
	}
	return out, nil
}

func bSum(it *Interpreter, this Value, args []Value) (Value, error) {
	ds, err := numericElems(arg(args, 0), "$sum")
	if err != nil {
		return nil, err
	}
	acc := decimal.New(0)
	for _, d := range ds {
		acc, err = decimal.Add(acc, d)
		if err != nil {
			return nil, err
		}
	}
	return wrapNumeric(acc), nil
}

func bAvg(it *Interpreter, this Value, args []Value) (Value, error) {
	ds, err := numericElems(arg(args, 0), "$avg")
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return Undefined{}, nil
	}
	acc := decimal.New(0)
	for _, d := range ds {
		acc, err = decimal.Add(acc, d)
		if err != nil {
			return nil, err
		}
	}
	q, err := decimal.Div(acc, decimal.New(int64(len(ds))))
	if err != nil {
		return nil, err
	}
	return wrapNumeric(q), nil
}

func bMin(it *Interpreter, this Value, args []Value) (Value, error) {
	ds, err := numericElems(arg(args, 0), "$min")
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return Undefined{}, nil
	}
	m := ds[0]
	for _, d := range ds[1:] {
		if decimal.Cmp(d, m) < 0 {
			m = d
		}
	}
	return wrapNumeric(m), nil
}

func bMax(it *Interpreter, this Value, args []Value) (Value, error) {
	ds, err := numericElems(arg(args, 0), "$max")
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return Undefined{}, nil
	}
	m := ds[0]
	for _, d := range ds[1:] {
		if decimal.Cmp(d, m) > 0 {
			m = d
		}
	}
	return wrapNumeric(m), nil
}
