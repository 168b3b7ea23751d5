// Package remote talks to the provisioned instance over SSH. It covers the
// three things the workflows need: waiting for the instance to accept
// connections after boot, running commands (optionally via sudo), and
// transferring rendered artifacts with SFTP.
package remote
