package httpx

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// maxBodyBytes caps request bodies; quote payloads are small.
const maxBodyBytes = 1 << 20

// Decode reads a JSON request body into dst.
// Unknown fields are ignored; an empty body decodes to the zero value.
func Decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}

// Numeric is a float64 that tolerates malformed input.
// Numbers sent as strings are parsed; anything non-numeric (null, empty
// string, garbage text, NaN, Inf) decodes to 0 instead of failing the whole
// request. This mirrors the form-input behavior of the editing UI, where a
// cleared or mistyped field counts as zero rather than an error.
type Numeric float64

// UnmarshalJSON implements lenient numeric decoding.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	*n = 0
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = Numeric(f)
	return nil
}

// Float64 returns the underlying value.
func (n Numeric) Float64() float64 { return float64(n) }
