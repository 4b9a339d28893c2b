// Package callback encodes and decodes the data carried by inline keyboard buttons.
//
// The wire format is <cid>^^^<index>^^^<op>[^^<k>=<v>[&<k>=<v>...]].
package callback

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	fieldSep = "^^^"
	flagSep  = "^^"
)

// ErrMalformed is returned for callback data that does not follow the wire format.
var ErrMalformed = errors.New("malformed callback data")

// Op is the operation a button triggers.
type Op string

const (
	OpPrev        Op = "prev"
	OpNext        Op = "next"
	OpCancel      Op = "cancel"
	OpDone        Op = "done"
	OpNoop        Op = "noop"
	OpAdd         Op = "add"
	OpRemoveUser  Op = "remove_user"
	OpMakeAdmin   Op = "make_admin"
	OpRemoveAdmin Op = "remove_admin"
)

// Known reports whether op is one the bot handles.
func (o Op) Known() bool {
	switch o {
	case OpPrev, OpNext, OpCancel, OpDone, OpNoop, OpAdd, OpRemoveUser, OpMakeAdmin, OpRemoveAdmin:
		return true
	}
	return false
}

// Flag is one key=value pair applied to add-data before the op runs.
type Flag struct {
	Key   string
	Value string
}

// Data is a decoded button press. Index is a result index, a users page, or a user id
// for the user admin ops.
type Data struct {
	CID   string
	Index int64
	Op    Op
	Flags []Flag
}

// New builds callback data without flags.
func New(cid string, index int64, op Op) Data {
	return Data{CID: cid, Index: index, Op: op}
}

// With returns a copy of d with one more flag.
func (d Data) With(key, value string) Data {
	flags := make([]Flag, 0, len(d.Flags)+1)
	flags = append(flags, d.Flags...)
	d.Flags = append(flags, Flag{Key: key, Value: value})
	return d
}

// Encode renders d in wire format.
func Encode(d Data) string {
	var b strings.Builder
	b.WriteString(d.CID)
	b.WriteString(fieldSep)
	b.WriteString(strconv.FormatInt(d.Index, 10))
	b.WriteString(fieldSep)
	b.WriteString(string(d.Op))
	if len(d.Flags) > 0 {
		b.WriteString(flagSep)
		for i, f := range d.Flags {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(f.Key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(f.Value))
		}
	}
	return b.String()
}

func (d Data) String() string { return Encode(d) }

// CID extracts just the conversation id, which is enough to look the conversation up
// before the rest of the payload is trusted.
func CID(raw string) string {
	cid, _, _ := strings.Cut(raw, fieldSep)
	return cid
}

// Parse decodes wire-format callback data. Flags keep their order; a repeated key keeps
// every occurrence.
func Parse(raw string) (Data, error) {
	parts := strings.Split(raw, fieldSep)
	if len(parts) != 3 || parts[0] == "" {
		return Data{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	index, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Data{}, fmt.Errorf("%w: bad index %q", ErrMalformed, parts[1])
	}
	d := Data{CID: parts[0], Index: index}
	op, flags, hasFlags := strings.Cut(parts[2], flagSep)
	d.Op = Op(op)
	if d.Op == "" {
		return Data{}, fmt.Errorf("%w: missing op", ErrMalformed)
	}
	if !hasFlags {
		return d, nil
	}
	for _, pair := range strings.Split(flags, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return Data{}, fmt.Errorf("%w: flag key %q", ErrMalformed, k)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return Data{}, fmt.Errorf("%w: flag value %q", ErrMalformed, v)
		}
		if key == "" || value == "" {
			continue
		}
		d.Flags = append(d.Flags, Flag{Key: key, Value: value})
	}
	return d, nil
}
