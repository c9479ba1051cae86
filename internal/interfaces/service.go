package interfaces

// Service is implemented by every interface exposing the application, like
// the REST server or the inbound event consumer.
type Service interface {
	Start() error
	Stop()
}
