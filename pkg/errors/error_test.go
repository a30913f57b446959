package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidPeriod, "period must be positive")
	suite.Equal(ErrCodeInvalidPeriod, err.Code)
	suite.Equal("period must be positive", err.Message)
	suite.Nil(err.Cause)
	suite.Equal("[101] period must be positive", err.Error())
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeUnknownStrategy, "unknown strategy type %q", "RSI")
	suite.Equal(`unknown strategy type "RSI"`, err.Message)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeStorage, "record run", cause)
	suite.Equal(cause, err.Cause)
	suite.Equal("[300] record run: disk full", err.Error())
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("bad row")
	err := Wrapf(ErrCodeDataParse, cause, "line %d", 7)
	suite.Equal("line 7", err.Message)
	suite.Equal(cause, errors.Unwrap(err))
}

func (suite *ErrorTestSuite) TestGetCodeThroughFmtWrap() {
	inner := New(ErrCodeDataIntegrity, "bars out of order")
	outer := fmt.Errorf("load: %w", inner)

	suite.Equal(ErrCodeDataIntegrity, GetCode(outer))
	suite.True(HasCode(outer, ErrCodeDataIntegrity))
	suite.False(HasCode(outer, ErrCodeStorage))

	var target *Error
	suite.True(As(outer, &target))
	suite.Equal(inner, target)
}

func (suite *ErrorTestSuite) TestGetCodePlainError() {
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
	suite.Equal(ErrCodeUnknown, GetCode(nil))
}

func (suite *ErrorTestSuite) TestIsConfiguration() {
	suite.True(IsConfiguration(New(ErrCodeInvalidMultiplier, "x")))
	suite.True(IsConfiguration(New(ErrCodeUnknownStrategy, "x")))
	suite.False(IsConfiguration(New(ErrCodeDataIntegrity, "x")))
	suite.False(IsConfiguration(errors.New("x")))
}
