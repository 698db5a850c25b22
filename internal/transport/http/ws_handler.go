package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"learnify-quiz-service/internal/app"
	"learnify-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	OptionIndex int `json:"optionIndex"`
}

type codePayload struct {
	Code string `json:"code"`
}

type questionPayload struct {
	Index         int      `json:"index"`
	Total         int      `json:"total"`
	Text          string   `json:"text"`
	Type          string   `json:"questionType"`
	Options       []string `json:"options,omitempty"`
	CodingPrompt  string   `json:"codingPrompt,omitempty"`
	StarterCode   string   `json:"starterCode,omitempty"`
	Language      string   `json:"language,omitempty"`
	TimeLimitMins float64  `json:"timeLimitMinutes"`
}

type answerResult struct {
	QuestionIndex int  `json:"questionIndex"`
	Correct       bool `json:"correct"`
	CorrectCount  int  `json:"correctCount"`
}

type tickPayload struct {
	RemainingMillis int64 `json:"remainingMillis"`
}

type completedPayload struct {
	Score      int                     `json:"score"`
	Total      int                     `json:"total"`
	Percentage int                     `json:"percentage"`
	Results    []domain.QuestionResult `json:"results"`
}

type validationPayload struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs one quiz session per
// connection. The connection closing ends the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sessionID, session, err := h.service.StartQuiz(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.EndSession(sessionID)

	events, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				msg, ok := h.translate(session, ev)
				if !ok {
					continue
				}
				select {
				case send <- msg:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}}
				continue
			}
			if err := session.SelectOption(payload.OptionIndex); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "advance":
			session.Advance()
		case "skip":
			session.SkipCoding()
		case "code":
			var payload codePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid code payload"}}
				continue
			}
			res := session.SubmitCode(r.Context(), payload.Code)
			send <- outboundMessage[any]{Type: "validation", Payload: validationPayload{
				IsValid: res.IsValid,
				Message: res.Message,
			}}
		case "retake":
			session.Retake()
		case "finish":
			session.Finish()
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) translate(session *app.Session, ev app.Event) (outboundMessage[any], bool) {
	switch ev.Type {
	case app.EventQuestionChanged:
		q := session.CurrentQuestion()
		return outboundMessage[any]{Type: "question", Payload: sanitizeQuestion(ev, q)}, true
	case app.EventAnswerRecorded:
		return outboundMessage[any]{Type: "answerResult", Payload: answerResult{
			QuestionIndex: ev.QuestionIndex,
			Correct:       ev.Correct,
			CorrectCount:  ev.CorrectCount,
		}}, true
	case app.EventTimeTick:
		return outboundMessage[any]{Type: "tick", Payload: tickPayload{RemainingMillis: ev.RemainingMillis}}, true
	case app.EventCompleted:
		percentage := 0
		if ev.TotalQuestions > 0 {
			percentage = ev.CorrectCount * 100 / ev.TotalQuestions
		}
		return outboundMessage[any]{Type: "completed", Payload: completedPayload{
			Score:      ev.CorrectCount,
			Total:      ev.TotalQuestions,
			Percentage: percentage,
			Results:    session.Results(),
		}}, true
	default:
		return outboundMessage[any]{}, false
	}
}

// sanitizeQuestion strips the answer key before a question goes over the wire.
func sanitizeQuestion(ev app.Event, q domain.QuizQuestion) questionPayload {
	return questionPayload{
		Index:         ev.QuestionIndex,
		Total:         ev.TotalQuestions,
		Text:          q.Text,
		Type:          string(q.Type),
		Options:       q.Options,
		CodingPrompt:  q.CodingPrompt,
		StarterCode:   q.StarterCode,
		Language:      q.Language,
		TimeLimitMins: q.TimeLimit,
	}
}
