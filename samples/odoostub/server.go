// Package odoostub is an in-memory stand-in for the business-management
// server, speaking the same JSON-RPC-over-POST wire format. It backs the
// round-trip tests and can be mounted on any http listener for manual
// poking; nothing here is production code.
package odoostub

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/mux"

	odoorpc "github.com/jgtolentino/clean-dashboard"
	"github.com/jgtolentino/clean-dashboard/proto"
)

type user struct {
	password string
	uid      int64
}

type table struct {
	nextID int64
	rows   map[int64]map[string]interface{}
}

// Server holds the fake dataset. All state is behind one mutex; the tests
// hammer it from a handful of goroutines at most.
type Server struct {
	mu       sync.Mutex
	db       string
	users    map[string]user
	tables   map[string]*table
	requests map[string]int
}

// NewServer returns a stub accepting sessions against the named tenant
// database. Users and rows are added with AddUser and Seed.
func NewServer(db string) *Server {
	return &Server{
		db:       db,
		users:    map[string]user{},
		tables:   map[string]*table{},
		requests: map[string]int{},
	}
}

func (s *Server) AddUser(login, password string, uid int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[login] = user{password: password, uid: uid}
}

// Seed inserts a row directly, bypassing the wire, and returns its id.
func (s *Server) Seed(model string, values map[string]interface{}) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(model, values)
}

// Requests reports how many calls the endpoint has served, for
// at-most-once assertions in tests.
func (s *Server) Requests(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[endpoint]
}

// Rows returns a copy of every row in model, for state assertions.
func (s *Server) Rows(model string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tables[model]
	if t == nil {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(t.rows))
	for id, row := range t.rows {
		cp := map[string]interface{}{"id": id}
		for k, v := range row {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// Handler mounts the three endpoints the client speaks to.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(odoorpc.EndpointAuthenticate, s.counted(s.handleAuthenticate)).Methods(http.MethodPost)
	r.HandleFunc(odoorpc.EndpointSearchRead, s.counted(s.handleSearchRead)).Methods(http.MethodPost)
	r.HandleFunc(odoorpc.EndpointCallKw, s.counted(s.handleCallKw)).Methods(http.MethodPost)
	return r
}

func (s *Server) counted(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.mu.Unlock()
		next(w, r)
	}
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      uint64          `json:"id"`
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*rpcRequest, bool) {
	req := &rpcRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return req, true
}

func writeResult(w http.ResponseWriter, id uint64, result interface{}) {
	raw, err := json.Marshal(result)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeEnvelope(w, &proto.Response{JSONRPC: proto.Version, ID: id, Result: raw})
}

func writeError(w http.ResponseWriter, id uint64, code int, message string) {
	writeEnvelope(w, &proto.Response{
		JSONRPC: proto.Version,
		ID:      id,
		Error:   &proto.Error{Code: code, Message: message},
	})
}

func writeEnvelope(w http.ResponseWriter, resp *proto.Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	var params proto.AuthParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeError(w, req.ID, 400, "malformed authentication params")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if params.DB != s.db {
		writeError(w, req.ID, 404, "unknown database "+params.DB)
		return
	}
	u, found := s.users[params.Login]
	if !found || u.password != params.Password {
		// Rejected credentials answer result false, not an error object.
		writeResult(w, req.ID, false)
		return
	}
	writeResult(w, req.ID, u.uid)
}

func (s *Server) handleSearchRead(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	var params struct {
		Model  string          `json:"model"`
		Domain []interface{}   `json:"domain"`
		Fields []string        `json:"fields"`
		Limit  int             `json:"limit"`
		Offset int             `json:"offset"`
		Sort   string          `json:"sort"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeError(w, req.ID, 400, "malformed search_read params")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.selectLocked(params.Model, params.Domain)
	if err != nil {
		writeError(w, req.ID, err.code, err.message)
		return
	}
	sortRows(rows, params.Sort)

	if params.Offset > 0 {
		if params.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[params.Offset:]
		}
	}
	if params.Limit > 0 && params.Limit < len(rows) {
		rows = rows[:params.Limit]
	}

	records := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		records = append(records, project(row, params.Fields))
	}
	writeResult(w, req.ID, map[string]interface{}{
		"records": records,
		"length":  len(records),
	})
}

func (s *Server) handleCallKw(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	var params struct {
		Model  string                 `json:"model"`
		Method string                 `json:"method"`
		Args   []json.RawMessage      `json:"args"`
		KWArgs map[string]interface{} `json:"kwargs"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeError(w, req.ID, 400, "malformed call_kw params")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch params.Method {
	case "create":
		s.callCreate(w, req.ID, params.Model, params.Args)
	case "write":
		s.callWrite(w, req.ID, params.Model, params.Args)
	case "unlink":
		s.callUnlink(w, req.ID, params.Model, params.Args)
	case "read_group":
		s.callReadGroup(w, req.ID, params.Model, params.Args, params.KWArgs)
	case "action_confirm":
		s.callActionConfirm(w, req.ID, params.Model, params.Args)
	default:
		writeError(w, req.ID, -32601, "method not found: "+params.Method)
	}
}

func (s *Server) callCreate(w http.ResponseWriter, id uint64, model string, args []json.RawMessage) {
	var values map[string]interface{}
	if len(args) < 1 || json.Unmarshal(args[0], &values) != nil {
		writeError(w, id, 400, "create expects a value map")
		return
	}
	if name, present := values["name"]; model == "res.partner" && (!present || name == "") {
		writeError(w, id, 400, "Invalid")
		return
	}
	writeResult(w, id, s.insertLocked(model, values))
}

func (s *Server) callWrite(w http.ResponseWriter, id uint64, model string, args []json.RawMessage) {
	var ids []int64
	var values map[string]interface{}
	if len(args) < 2 || json.Unmarshal(args[0], &ids) != nil || json.Unmarshal(args[1], &values) != nil {
		writeError(w, id, 400, "write expects ids and a value map")
		return
	}
	t := s.tables[model]
	if t == nil {
		writeError(w, id, 404, "unknown model "+model)
		return
	}
	// All ids are checked before any row changes, so a failed call leaves
	// every record untouched.
	for _, rid := range ids {
		if _, found := t.rows[rid]; !found {
			writeError(w, id, 404, "record does not exist")
			return
		}
	}
	for _, rid := range ids {
		for k, v := range values {
			t.rows[rid][k] = v
		}
	}
	writeResult(w, id, true)
}

func (s *Server) callUnlink(w http.ResponseWriter, id uint64, model string, args []json.RawMessage) {
	var ids []int64
	if len(args) < 1 || json.Unmarshal(args[0], &ids) != nil {
		writeError(w, id, 400, "unlink expects ids")
		return
	}
	t := s.tables[model]
	if t == nil {
		writeError(w, id, 404, "unknown model "+model)
		return
	}
	for _, rid := range ids {
		if _, found := t.rows[rid]; !found {
			writeError(w, id, 404, "record does not exist")
			return
		}
	}
	for _, rid := range ids {
		delete(t.rows, rid)
	}
	writeResult(w, id, true)
}

func (s *Server) callActionConfirm(w http.ResponseWriter, id uint64, model string, args []json.RawMessage) {
	var ids []int64
	if len(args) < 1 || json.Unmarshal(args[0], &ids) != nil {
		writeError(w, id, 400, "action_confirm expects ids")
		return
	}
	t := s.tables[model]
	if t == nil {
		writeError(w, id, 404, "unknown model "+model)
		return
	}
	for _, rid := range ids {
		row, found := t.rows[rid]
		if !found {
			writeError(w, id, 404, "record does not exist")
			return
		}
		row["state"] = "sale"
	}
	writeResult(w, id, true)
}

func (s *Server) insertLocked(model string, values map[string]interface{}) int64 {
	t := s.tables[model]
	if t == nil {
		t = &table{rows: map[int64]map[string]interface{}{}}
		s.tables[model] = t
	}
	t.nextID++
	row := make(map[string]interface{}, len(values))
	for k, v := range values {
		row[k] = v
	}
	t.rows[t.nextID] = row
	return t.nextID
}

type stubError struct {
	code    int
	message string
}

// selectLocked returns matching rows with ids attached, ordered by id.
func (s *Server) selectLocked(model string, domain []interface{}) ([]map[string]interface{}, *stubError) {
	t := s.tables[model]
	if t == nil {
		// An unknown or empty model matches nothing; the real server only
		// errors on models that do not exist at all, which the stub cannot
		// distinguish from not-yet-seeded ones.
		return nil, nil
	}
	match, err := compileDomain(domain)
	if err != nil {
		return nil, &stubError{code: 400, message: err.Error()}
	}

	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []map[string]interface{}
	for _, id := range ids {
		row := map[string]interface{}{"id": float64(id)}
		for k, v := range t.rows[id] {
			row[k] = v
		}
		if match(row) {
			out = append(out, row)
		}
	}
	return out, nil
}

func project(row map[string]interface{}, fields []string) map[string]interface{} {
	if len(fields) == 0 {
		return row
	}
	out := map[string]interface{}{"id": row["id"]}
	for _, f := range fields {
		if v, found := row[f]; found {
			out[f] = v
		} else {
			out[f] = false
		}
	}
	return out
}

func sortRows(rows []map[string]interface{}, spec string) {
	field, desc := parseSort(spec)
	if field == "" {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return lessValue(rows[j][field], rows[i][field])
		}
		return lessValue(rows[i][field], rows[j][field])
	})
}
