package domain

// Device describes one cast device located during a discovery pass.
// Records are immutable once constructed.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Model  string `json:"model"`
	IPAddr string `json:"ip_addr"`
	Port   uint16 `json:"port"`
}
