package respond

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// JSON кодирует ответ заранее, чтобы при ошибке кодирования не отправить
// клиенту статус успеха с обрезанным телом.
func JSON(w http.ResponseWriter, r *http.Request, code int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		code = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"failed to encode response"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

// Empty отвечает пустым объектом {}.
func Empty(w http.ResponseWriter, r *http.Request, code int) {
	JSON(w, r, code, struct{}{})
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, map[string]string{"error": message})
}
