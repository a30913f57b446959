package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
	suite.True(logger.Core().Enabled(zapcore.InfoLevel))
	suite.False(logger.Core().Enabled(zapcore.DebugLevel))
}

func (suite *LoggerTestSuite) TestNewWithLevel() {
	logger, err := New(Options{Level: "DEBUG", Development: true})
	suite.NoError(err)
	suite.True(logger.Core().Enabled(zapcore.DebugLevel))
}

func (suite *LoggerTestSuite) TestNewInvalidLevel() {
	_, err := New(Options{Level: "chatty"})
	suite.Error(err)
}

func (suite *LoggerTestSuite) TestOutputPaths() {
	path := filepath.Join(suite.T().TempDir(), "run.log")
	logger, err := New(Options{OutputPaths: []string{path}})
	suite.NoError(err)

	logger.Info("run finished", zap.String("run_id", "abc"))
	_ = logger.Sync()
	suite.FileExists(path)
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}
	suite.NoError(logger.Sync())
}

func (suite *LoggerTestSuite) TestNopAndWith() {
	logger := NewNop().With(zap.String("symbol", "AAPL"))
	suite.NotNil(logger.Logger)

	// These should not panic
	logger.Info("test info message")
	logger.Debug("test debug message")
	logger.Warn("test warn message")
}

func (suite *LoggerTestSuite) TestParseLevel() {
	level, err := ParseLevel("")
	suite.NoError(err)
	suite.Equal(zapcore.InfoLevel, level)

	level, err = ParseLevel("warn")
	suite.NoError(err)
	suite.Equal(zapcore.WarnLevel, level)
}
