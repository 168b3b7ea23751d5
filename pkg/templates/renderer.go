// Package templates renders the deployment artifacts: OpenTofu
// configuration, cloud-init user data, Ansible playbooks and the Docker
// Compose stack with the tracker configuration. The templates ship embedded
// in the binary; an environment can override any of them by placing a file
// with the same relative path under its templates directory.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

//go:embed templates
var embeddedFS embed.FS

const tmplSuffix = ".tmpl"

// Data is the value every template is rendered against. Fields not relevant
// to a template are simply unused by it.
type Data struct {
	EnvironmentName string
	InstanceName    string
	ProfileName     string

	SSHUsername       string
	SSHPort           int
	SSHPublicKey      string
	SSHPublicKeyPath  string
	SSHPrivateKeyPath string

	InstanceIP string

	UDPPort  int
	HTTPPort int
	APIPort  int
	APIToken string

	ServerType string
	Location   string
	Image      string
}

// DataFor assembles the template data from an environment. The SSH public
// key is read from disk so cloud-init can inline it; a missing key file is
// an error because the instance would be unreachable.
func DataFor(a environment.Any) (Data, error) {
	creds := a.SSHCredentials()
	pubKey, err := os.ReadFile(creds.PublicKeyPath)
	if err != nil {
		return Data{}, fmt.Errorf("reading SSH public key: %w", err)
	}

	tracker := a.Tracker()
	d := Data{
		EnvironmentName:   a.Name().String(),
		InstanceName:      a.InstanceName().String(),
		ProfileName:       a.ProfileName().String(),
		SSHUsername:       creds.Username,
		SSHPort:           a.SSHPort(),
		SSHPublicKey:      strings.TrimSpace(string(pubKey)),
		SSHPublicKeyPath:  creds.PublicKeyPath,
		SSHPrivateKeyPath: creds.PrivateKeyPath,
		UDPPort:           tracker.UDPPort,
		HTTPPort:          tracker.HTTPPort,
		APIPort:           tracker.APIPort,
		APIToken:          tracker.APIToken,
	}

	if ip, ok := a.InstanceIP(); ok {
		d.InstanceIP = ip.String()
	}
	if hz, ok := a.ProviderConfig().Hetzner(); ok {
		d.ServerType = hz.ServerType
		d.Location = hz.Location
		d.Image = hz.Image
	}
	return d, nil
}

// Renderer renders artifact sets into an environment's build directories.
type Renderer struct {
	// overrideDir forces one fixed override directory for every
	// environment. Empty means each environment's own templates directory
	// is consulted instead.
	overrideDir string
}

// NewRenderer returns a renderer. Files under an environment's templates
// directory shadow the embedded templates; overrideDir, when non-empty,
// replaces that per-environment lookup with a fixed directory.
func NewRenderer(overrideDir string) *Renderer {
	return &Renderer{overrideDir: overrideDir}
}

// overrideDirFor resolves the override directory for one environment.
func (r *Renderer) overrideDirFor(a environment.Any) string {
	if r.overrideDir != "" {
		return r.overrideDir
	}
	return a.TemplatesDir()
}

// RenderTofu renders the provider-specific OpenTofu configuration and the
// cloud-init user data into destDir.
func (r *Renderer) RenderTofu(a environment.Any, destDir string) error {
	data, err := DataFor(a)
	if err != nil {
		return err
	}
	overrideDir := r.overrideDirFor(a)
	if err := r.renderTree(overrideDir, path.Join("tofu", a.ProviderName()), destDir, data); err != nil {
		return err
	}
	return r.renderFile(overrideDir, "tofu/cloud-init.yml.tmpl", filepath.Join(destDir, "cloud-init.yml"), data)
}

// RenderAnsible renders the inventory and copies the playbooks into destDir.
// The inventory needs the instance address, so this runs after provisioning.
func (r *Renderer) RenderAnsible(a environment.Any, destDir string) error {
	if _, ok := a.InstanceIP(); !ok {
		return errors.New("rendering ansible artifacts requires the instance address")
	}
	data, err := DataFor(a)
	if err != nil {
		return err
	}
	return r.renderTree(r.overrideDirFor(a), "ansible", destDir, data)
}

// RenderCompose renders the Docker Compose stack and tracker configuration
// into destDir.
func (r *Renderer) RenderCompose(a environment.Any, destDir string) error {
	if err := ValidatePorts(a.Tracker()); err != nil {
		return err
	}
	data, err := DataFor(a)
	if err != nil {
		return err
	}
	return r.renderTree(r.overrideDirFor(a), "compose", destDir, data)
}

// renderTree walks one embedded subtree, rendering *.tmpl files and copying
// everything else verbatim.
func (r *Renderer) renderTree(overrideDir, root, destDir string, data Data) error {
	treeRoot := path.Join("templates", root)
	return fs.WalkDir(embeddedFS, treeRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(p, treeRoot+"/")
		dest := filepath.Join(destDir, filepath.FromSlash(strings.TrimSuffix(rel, tmplSuffix)))

		if strings.HasSuffix(p, tmplSuffix) {
			return r.renderFile(overrideDir, strings.TrimPrefix(p, "templates/"), dest, data)
		}
		return r.copyFile(overrideDir, strings.TrimPrefix(p, "templates/"), dest)
	})
}

// source returns the template file contents, preferring the override
// directory over the embedded set.
func (r *Renderer) source(overrideDir, rel string) ([]byte, error) {
	if overrideDir != "" {
		override := filepath.Join(overrideDir, filepath.FromSlash(rel))
		data, err := os.ReadFile(override)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading template override %s: %w", override, err)
		}
	}
	data, err := embeddedFS.ReadFile(path.Join("templates", rel))
	if err != nil {
		return nil, fmt.Errorf("reading embedded template %s: %w", rel, err)
	}
	return data, nil
}

func (r *Renderer) renderFile(overrideDir, rel, dest string, data Data) error {
	src, err := r.source(overrideDir, rel)
	if err != nil {
		return err
	}

	tmpl, err := template.New(path.Base(rel)).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return fmt.Errorf("parsing template %s: %w", rel, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating artifact %s: %w", dest, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("rendering template %s: %w", rel, err)
	}
	return nil
}

func (r *Renderer) copyFile(overrideDir, rel, dest string) error {
	src, err := r.source(overrideDir, rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	if err := os.WriteFile(dest, src, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", dest, err)
	}
	return nil
}

// ValidatePorts rejects port collisions that would break the compose stack.
func ValidatePorts(tracker environment.TrackerStack) error {
	seen := map[int]string{}
	for _, p := range []struct {
		name string
		port int
	}{
		{"udp", tracker.UDPPort},
		{"http", tracker.HTTPPort},
		{"api", tracker.APIPort},
	} {
		if p.port <= 0 || p.port > 65535 {
			return fmt.Errorf("%s port %d out of range", p.name, p.port)
		}
		if other, ok := seen[p.port]; ok {
			return fmt.Errorf("%s port %d collides with %s port", p.name, p.port, other)
		}
		seen[p.port] = p.name
	}
	return nil
}
