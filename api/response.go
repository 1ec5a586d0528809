package api

import (
	"encoding/json"
	"net/http"

	"upsolve/model"
	"upsolve/service"
)

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(model.GenericResponse{Success: code < http.StatusBadRequest, Status: code, Payload: payload})
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"status":500,"error":{"errorType":"MARSHAL_ERROR","code":500,"message":"Failed to marshal JSON response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError writes err in the shared error envelope, with the status
// taken from the error kind.
func RespondWithError(w http.ResponseWriter, err error) {
	info := service.ErrorInfo(err)
	response, _ := json.Marshal(model.GenericResponse{Success: false, Status: info.Code, Error: info})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(info.Code)
	w.Write(response)
}
