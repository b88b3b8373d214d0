package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"ecofinds/middleware"
	"ecofinds/utils"
	"ecofinds/validation"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// decodeJSON reads and validates a JSON body into dst. On failure it has
// already answered with 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			utils.WriteError(w, http.StatusBadRequest, "Request body is required")
		} else {
			utils.WriteError(w, http.StatusBadRequest, "Invalid input")
		}
		return false
	}
	if err := validation.Struct(dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// currentUser returns the authenticated caller's ID. On failure it has
// already answered with 401 and returns false.
func currentUser(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, false
	}
	id, err := claims.ObjectID()
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid token")
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathID parses the {name} path variable as an ObjectID
func pathID(w http.ResponseWriter, r *http.Request, name, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid "+what+" ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

var (
	errInvalidCredentials = errors.New("invalid login credentials")
	errAlreadyRegistered  = errors.New("user already registered")
	errUsernameTaken      = errors.New("username already taken")
)

// friendlyAuthMessages rewrites known auth failures for end users
var friendlyAuthMessages = []struct {
	match   string
	message string
}{
	{"invalid login credentials", "Invalid email or password. Please try again."},
	{"user already registered", "An account with this email already exists."},
	{"username already taken", "That username is taken. Please choose another."},
	{"email not confirmed", "Please confirm your email address before signing in."},
}

func friendlyAuthError(err error) string {
	msg := strings.ToLower(err.Error())
	for _, f := range friendlyAuthMessages {
		if strings.Contains(msg, f.match) {
			return f.message
		}
	}
	return err.Error()
}
