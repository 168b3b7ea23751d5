package environment

// SSHCredentials identifies the key pair and user for reaching a provisioned
// instance. Validation (absolute paths, key files exist) happens at the
// configuration boundary in pkg/config; the state machine stores the values
// as given.
type SSHCredentials struct {
	// PrivateKeyPath is the path to the SSH private key.
	PrivateKeyPath string

	// PublicKeyPath is the path to the matching public key. The public key
	// is injected into the instance via cloud-init.
	PublicKeyPath string

	// Username is the remote user the deployer connects as.
	Username string
}

// TrackerStack is the immutable snapshot of the tracker service configuration
// taken at environment creation. It drives template rendering and the
// user-facing service URLs; changing it requires recreating the environment.
type TrackerStack struct {
	// UDPPort is the UDP tracker announce port.
	UDPPort int

	// HTTPPort is the HTTP tracker announce port.
	HTTPPort int

	// APIPort is the tracker REST API port.
	APIPort int

	// APIToken is the admin token for the tracker REST API.
	APIToken string
}
