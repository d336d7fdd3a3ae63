package responseformat

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Content types
const (
	ContentJSON    = "application/json"
	ContentMsgPack = "application/x-msgpack"
)

// Formatter handles encoding and writing responses in JSON or MessagePack format
type Formatter struct {
	// CORS adds Access-Control-Allow-Origin: * to every response.
	CORS bool
}

// NewFormatter creates a new response formatter
func NewFormatter(cors bool) *Formatter {
	return &Formatter{CORS: cors}
}

// Wants reports whether the request asks for MessagePack, either with
// format=msgpack or an Accept header naming it.
func Wants(req *http.Request) string {
	if req.URL.Query().Get("format") == "msgpack" || req.Header.Get("Accept") == ContentMsgPack {
		return ContentMsgPack
	}
	return ContentJSON
}

// WriteResponse writes data with the given status in the format the request
// asks for. JSON is the default.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, status int, data any) error {
	if f.CORS {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}

	if Wants(req) == ContentMsgPack {
		w.Header().Set("Content-Type", ContentMsgPack)
		w.WriteHeader(status)
		return encodeMsgPack(w, data)
	}

	w.Header().Set("Content-Type", ContentJSON)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// WriteError writes an ErrorBody with the given status.
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, kind string, err error) error {
	return f.WriteResponse(w, req, status, ErrorBody{Error: err.Error(), Kind: kind})
}

// Marshal encodes data as MessagePack using the json struct tags, so both
// formats share one field naming.
func Marshal(data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeMsgPack(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeMsgPack(w io.Writer, data any) error {
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json")
	return encoder.Encode(data)
}
