package ports

// Logger defines the interface for logging.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Info(msg string)
	Warn(msg string)
	// AppWarn reports a line the supervised application printed that looks like an error.
	AppWarn(source, line string)
	Error(err error)
}
