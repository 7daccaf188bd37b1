package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/reoring/databind/logging"
	"github.com/reoring/databind/middleware"
	"github.com/reoring/databind/model"
	"github.com/reoring/databind/schemadoc"
	"github.com/reoring/databind/storage"
)

// userDoc declares the user model. The id is assigned by the server, so
// clients never have to send one.
const userDoc = `name: user
fields:
  id:
    type: number
    default: 0
  name:
    type: string
    validators:
      - required
      - name: minLength
        length: 2
  email:
    type: string
    validators:
      - required
      - name: pattern
        expr: "^[^@\\s]+@[^@\\s]+$"
  age:
    type: number
    default: 18
    validators:
      - name: min
        value: 0
      - name: max
        value: 130
  active:
    type: boolean
    default: true
`

const dbPath = "users.db"

// UserStore keeps user snapshots in a bbolt file under zero-padded keys so
// Keys returns them in creation order.
type UserStore struct {
	mu     sync.Mutex
	store  *storage.Store
	nextID int
}

func NewUserStore(store *storage.Store) (*UserStore, error) {
	s := &UserStore{store: store, nextID: 1}
	keys, err := store.Keys()
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if id, ok := idFromKey(key); ok && id >= s.nextID {
			s.nextID = id + 1
		}
	}
	return s, nil
}

func keyFor(id int) string { return fmt.Sprintf("user_%06d", id) }

func idFromKey(key string) (int, bool) {
	raw, ok := strings.CutPrefix(key, "user_")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *UserStore) Create(user map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	user["id"] = float64(id)
	if err := s.store.SaveObject(keyFor(id), user); err != nil {
		return nil, err
	}
	s.nextID++
	return user, nil
}

func (s *UserStore) GetAll() ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.store.Keys()
	if err != nil {
		return nil, err
	}
	users := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		user, err := s.store.LoadObject(key)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *UserStore) GetByID(id int) (map[string]any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.store.LoadObject(keyFor(id))
	if errors.Is(err, storage.ErrNoSnapshot) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserStore) Update(id int, user map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user["id"] = float64(id)
	return s.store.SaveObject(keyFor(id), user)
}

func (s *UserStore) Delete(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.LoadObject(keyFor(id)); errors.Is(err, storage.ErrNoSnapshot) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, s.store.Delete(keyFor(id))
}

// Server holds the application state.
type Server struct {
	users  *UserStore
	class  *model.Class
	create http.Handler
	log    *logging.Logger
}

func NewServer(users *UserStore, class *model.Class, log *logging.Logger) *Server {
	s := &Server{users: users, class: class, log: log}
	s.create = middleware.Validate(class, http.HandlerFunc(s.handleCreateUser))
	return s
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetUsers(w, r)
	case http.MethodPost:
		s.create.ServeHTTP(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/users/")
	id, err := strconv.Atoi(path)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetUser(w, r, id)
	case http.MethodPatch:
		s.handlePatchUser(w, r, id)
	case http.MethodDelete:
		s.handleDeleteUser(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetUsers(w http.ResponseWriter, _ *http.Request) {
	users, err := s.users.GetAll()
	if err != nil {
		s.handleStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, _ *http.Request, id int) {
	user, exists, err := s.users.GetByID(id)
	if err != nil {
		s.handleStoreError(w, err)
		return
	}
	if !exists {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleCreateUser runs behind middleware.Validate, so the decoded and
// validated instance is already in the request context.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	in, ok := middleware.InstanceFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	created, err := s.users.Create(in.EncodeObject())
	if err != nil {
		s.handleStoreError(w, err)
		return
	}
	s.log.Infof("created user %v", created["id"])
	writeJSON(w, http.StatusCreated, created)
}

// handlePatchUser applies only the fields present in the request body, so
// a body of {"name":"Jiro"} leaves every other field untouched.
func (s *Server) handlePatchUser(w http.ResponseWriter, r *http.Request, id int) {
	existing, exists, err := s.users.GetByID(id)
	if err != nil {
		s.handleStoreError(w, err)
		return
	}
	if !exists {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	in, err := s.class.New(existing)
	if err != nil {
		s.handleStoreError(w, err)
		return
	}

	updated := make([]string, 0, len(body))
	for _, path := range sortedKeys(body) {
		if path == "id" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "id is read-only"})
			return
		}
		if !s.class.Has(path) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": fmt.Sprintf("unknown field %q", path)})
			return
		}
		if err := in.Set(path, body[path]); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		updated = append(updated, path)
	}

	if !in.Validate() {
		writeJSON(w, http.StatusUnprocessableEntity, middleware.ErrorPayload(in.Errors()))
		return
	}

	if err := s.users.Update(id, in.EncodeObject()); err != nil {
		s.handleStoreError(w, err)
		return
	}
	s.log.Infof("updated user %d fields %v", id, updated)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":           in.EncodeObject(),
		"updated_fields": updated,
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, _ *http.Request, id int) {
	deleted, err := s.users.Delete(id)
	if err != nil {
		s.handleStoreError(w, err)
		return
	}
	if !deleted {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.class.JSONSchema())
}

func (s *Server) handleStoreError(w http.ResponseWriter, err error) {
	s.log.Errorf("store: %v", err)
	http.Error(w, "Storage error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func seed(users *UserStore, class *model.Class) error {
	existing, err := users.GetAll()
	if err != nil || len(existing) > 0 {
		return err
	}
	for _, obj := range []map[string]any{
		{"name": "Taro", "email": "taro@example.com", "age": float64(30)},
		{"name": "Hanako", "email": "hanako@example.com", "age": float64(25)},
	} {
		in, err := class.New(obj)
		if err != nil {
			return err
		}
		if _, err := users.Create(in.EncodeObject()); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	log := logging.New(&logging.Config{Level: logging.LevelInfo})

	schema, err := schemadoc.LoadYAML([]byte(userDoc))
	if err != nil {
		log.Errorf("schema: %v", err)
		os.Exit(1)
	}
	class, err := model.Build(schema)
	if err != nil {
		log.Errorf("schema: %v", err)
		os.Exit(1)
	}

	store, err := storage.Open(dbPath, &storage.Options{Logger: log})
	if err != nil {
		log.Errorf("storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	users, err := NewUserStore(store)
	if err != nil {
		log.Errorf("storage: %v", err)
		os.Exit(1)
	}
	if err := seed(users, class); err != nil {
		log.Errorf("seed: %v", err)
		os.Exit(1)
	}

	server := NewServer(users, class, log)
	http.HandleFunc("/users", server.handleUsers)
	http.HandleFunc("/users/", server.handleUserByID)
	http.HandleFunc("/schema", server.handleSchema)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "databind User API sample",
			"endpoints": map[string]string{
				"GET /users":         "Get all users",
				"POST /users":        "Create a new user",
				"GET /users/{id}":    "Get user by ID",
				"PATCH /users/{id}":  "Partially update user",
				"DELETE /users/{id}": "Delete user",
				"GET /schema":        "Get JSON Schema for users",
				"GET /health":        "Health check",
			},
		})
	})

	log.Infof("user API listening on :8080, snapshots in %s", dbPath)
	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Errorf("server: %v", err)
		os.Exit(1)
	}
}
