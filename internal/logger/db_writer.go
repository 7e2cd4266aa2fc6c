package logger

import (
	"context"
	"fmt"
	"time"

	"taskpilot/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to the worker.
type LogEntry struct {
	Level   zapcore.Level
	Message string
	UserID  string
	Caller  string
}

type storedLog struct {
	Message   string    `bson:"message"`
	Level     string    `bson:"level"`
	UserID    string    `bson:"user_id,omitempty"`
	Caller    string    `bson:"caller,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	db      *mongo.Database
	logChan chan LogEntry
}

func NewDBLogWriter(mongodb *database.MongodbDB) *DBLogWriter {
	writer := &DBLogWriter{
		db:      mongodb.DB,
		logChan: make(chan LogEntry, 1000),
	}

	go writer.processLogs()

	return writer
}

// AddLog never blocks; when the channel is full the entry is dropped so
// logging cannot stall a request.
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		fmt.Println("log channel full, dropping:", entry.Message)
	}
}

func (w *DBLogWriter) processLogs() {
	for entry := range w.logChan {
		record := storedLog{
			Message:   entry.Message,
			Level:     entry.Level.String(),
			UserID:    entry.UserID,
			Caller:    entry.Caller,
			CreatedAt: time.Now().UTC(),
		}
		// Insert errors are ignored to keep the app running.
		w.db.Collection("app_logs").InsertOne(context.Background(), record)
	}
}
