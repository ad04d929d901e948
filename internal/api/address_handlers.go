package api

import (
	"encoding/base64"
	"net/http"

	"github.com/ignite/emailtype/internal/emailaddr"
	"github.com/ignite/emailtype/internal/pkg/httputil"
	"github.com/ignite/emailtype/internal/service/suppression"
)

// maxSortBatch caps the addresses accepted by the sort endpoint.
const maxSortBatch = 10000

// AddressView is the JSON rendering of one address.
type AddressView struct {
	Canonical string `json:"canonical"`
	Local     string `json:"local"`
	Domain    string `json:"domain"`
	Hash      uint32 `json:"hash"`
	Encoded   string `json:"encoded"` // base64 of the binary encoding
	Length    int    `json:"length"`
}

func viewOf(a emailaddr.Address) AddressView {
	return AddressView{
		Canonical: a.String(),
		Local:     a.Local(),
		Domain:    a.Domain(),
		Hash:      a.Hash(),
		Encoded:   base64.StdEncoding.EncodeToString(emailaddr.Encode(a)),
		Length:    len(a.String()),
	}
}

// ComparisonView reports every relation between two addresses.
type ComparisonView struct {
	A              AddressView `json:"a"`
	B              AddressView `json:"b"`
	Compare        int         `json:"compare"`
	Equal          bool        `json:"equal"`
	NotEqual       bool        `json:"not_equal"`
	Less           bool        `json:"less"`
	LessOrEqual    bool        `json:"less_or_equal"`
	Greater        bool        `json:"greater"`
	GreaterOrEqual bool        `json:"greater_or_equal"`
	SameDomain     bool        `json:"same_domain"`
	NotSameDomain  bool        `json:"not_same_domain"`
}

// SortResponse is returned by the sort endpoint.
type SortResponse struct {
	Sorted  []emailaddr.Address        `json:"sorted"`
	Invalid []suppression.InvalidEmail `json:"invalid"`
}

// HandleParse validates and canonicalizes one address.
//
//	POST /api/addresses/parse {"text": "..."}
func (h *Handlers) HandleParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	a, err := emailaddr.Parse(req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, viewOf(a))
}

// HandleDecode decodes a base64 binary encoding.
//
//	POST /api/addresses/decode {"encoded": "..."}
func (h *Handlers) HandleDecode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Encoded string `json:"encoded"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Encoded)
	if err != nil {
		httputil.ErrorWithCode(w, http.StatusBadRequest, codeBadRequest, "encoded must be standard base64", nil)
		return
	}
	a, err := emailaddr.Decode(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, viewOf(a))
}

// HandleCompare compares two addresses.
//
//	POST /api/addresses/compare {"a": "...", "b": "..."}
func (h *Handlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		A string `json:"a"`
		B string `json:"b"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	a, err := emailaddr.Parse(req.A)
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := emailaddr.Parse(req.B)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, ComparisonView{
		A:              viewOf(a),
		B:              viewOf(b),
		Compare:        a.Compare(b),
		Equal:          a.Equal(b),
		NotEqual:       a.NotEqual(b),
		Less:           a.Less(b),
		LessOrEqual:    a.LessOrEqual(b),
		Greater:        a.Greater(b),
		GreaterOrEqual: a.GreaterOrEqual(b),
		SameDomain:     a.SameDomain(b),
		NotSameDomain:  a.NotSameDomain(b),
	})
}

// HandleSort sorts addresses domain-major and drops duplicates. Invalid
// inputs are reported, not fatal.
//
//	POST /api/addresses/sort {"addresses": ["...", ...]}
func (h *Handlers) HandleSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Addresses []string `json:"addresses"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.Addresses) > maxSortBatch {
		httputil.ErrorWithCode(w, http.StatusBadRequest, codeBadRequest, "too many addresses", map[string]int{"max": maxSortBatch})
		return
	}

	resp := SortResponse{Sorted: []emailaddr.Address{}, Invalid: []suppression.InvalidEmail{}}
	for _, raw := range req.Addresses {
		a, err := emailaddr.Parse(raw)
		if err != nil {
			resp.Invalid = append(resp.Invalid, suppression.InvalidEmail{Input: raw, Reason: err.Error()})
			continue
		}
		resp.Sorted = append(resp.Sorted, a)
	}
	resp.Sorted = emailaddr.SortedUnique(resp.Sorted)
	httputil.OK(w, resp)
}
