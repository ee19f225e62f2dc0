package logging

import (
	"encoding/json"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// ScalyrEncoder is a Zap encoder that writes one flat Scalyr-compatible JSON object per entry
type ScalyrEncoder struct {
	zapcore.Encoder
	config zapcore.EncoderConfig
	// fields added through With(); the embedded encoder keeps its own copy for Clone
	context []zapcore.Field
}

// NewScalyrEncoder creates a new Scalyr-compatible encoder
func NewScalyrEncoder(config zapcore.EncoderConfig) zapcore.Encoder {
	return &ScalyrEncoder{
		Encoder: zapcore.NewJSONEncoder(config),
		config:  config,
	}
}

// AddString records context fields so they survive into EncodeEntry
func (e *ScalyrEncoder) AddString(key, value string) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.StringType, String: value})
	e.Encoder.AddString(key, value)
}

// AddInt64 records context fields so they survive into EncodeEntry
func (e *ScalyrEncoder) AddInt64(key string, value int64) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.Int64Type, Integer: value})
	e.Encoder.AddInt64(key, value)
}

// AddBool records context fields so they survive into EncodeEntry
func (e *ScalyrEncoder) AddBool(key string, value bool) {
	var i int64
	if value {
		i = 1
	}
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.BoolType, Integer: i})
	e.Encoder.AddBool(key, value)
}

// EncodeEntry encodes a log entry in Scalyr-compatible format
func (e *ScalyrEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range e.context {
		field.AddTo(enc)
	}
	for _, field := range fields {
		field.AddTo(enc)
	}

	logObj := enc.Fields
	for k, v := range logObj {
		switch val := v.(type) {
		case time.Duration:
			logObj[k] = val.String()
		case time.Time:
			logObj[k] = val.Format(time.RFC3339Nano)
		}
	}

	logObj["timestamp"] = entry.Time.Format(time.RFC3339Nano)
	logObj["level"] = entry.Level.String()
	logObj["message"] = entry.Message
	if entry.LoggerName != "" {
		logObj["logger"] = entry.LoggerName
	}
	if entry.Caller.Defined {
		logObj["file"] = entry.Caller.File
		logObj["line"] = entry.Caller.Line
		logObj["function"] = entry.Caller.Function
	}
	if entry.Stack != "" {
		logObj["stack"] = entry.Stack
	}

	data, err := json.Marshal(logObj)
	if err != nil {
		return nil, err
	}

	buf := bufferPool.Get()
	buf.AppendBytes(data)
	buf.AppendString(zapcore.DefaultLineEnding)
	return buf, nil
}

// Clone creates a copy of the encoder
func (e *ScalyrEncoder) Clone() zapcore.Encoder {
	context := make([]zapcore.Field, len(e.context))
	copy(context, e.context)
	return &ScalyrEncoder{
		Encoder: e.Encoder.Clone(),
		config:  e.config,
		context: context,
	}
}
