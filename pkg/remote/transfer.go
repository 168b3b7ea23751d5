package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/sftp"
)

// UploadFile copies a local file to the instance via SFTP, creating remote
// parent directories as needed.
func (c *Client) UploadFile(ctx context.Context, localPath, remotePath string, mode os.FileMode) error {
	local, err := os.Open(localPath)
	if err != nil {
		return &TransportError{Op: "upload", Err: fmt.Errorf("opening local file: %w", err)}
	}
	defer local.Close()

	sftpClient, err := c.sftpClient()
	if err != nil {
		return err
	}
	defer sftpClient.Close()

	if err := sftpClient.MkdirAll(path.Dir(remotePath)); err != nil {
		return &TransportError{Op: "upload", Err: fmt.Errorf("creating remote directory: %w", err)}
	}

	remote, err := sftpClient.Create(remotePath)
	if err != nil {
		return &TransportError{Op: "upload", Err: fmt.Errorf("creating remote file: %w", err), IsTemporary: true}
	}
	defer remote.Close()

	if _, err := copyWithContext(ctx, remote, local); err != nil {
		return &TransportError{Op: "upload", Err: fmt.Errorf("copying file: %w", err), IsTemporary: true}
	}
	if mode > 0 {
		if err := sftpClient.Chmod(remotePath, mode); err != nil {
			return &TransportError{Op: "upload", Err: fmt.Errorf("setting permissions: %w", err)}
		}
	}
	return nil
}

// UploadDirectory recursively copies a local directory to the instance,
// preserving file permissions. The release workflow uses it to ship the
// rendered compose stack.
func (c *Client) UploadDirectory(ctx context.Context, localDir, remoteDir string) error {
	sftpClient, err := c.sftpClient()
	if err != nil {
		return err
	}
	defer sftpClient.Close()

	return filepath.Walk(localDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		target := path.Join(remoteDir, filepath.ToSlash(rel))

		if info.IsDir() {
			if err := sftpClient.MkdirAll(target); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
			return nil
		}

		local, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("opening %s: %w", p, err)
		}
		defer local.Close()

		remote, err := sftpClient.Create(target)
		if err != nil {
			return fmt.Errorf("creating %s: %w", target, err)
		}
		defer remote.Close()

		if _, err := copyWithContext(ctx, remote, local); err != nil {
			return fmt.Errorf("copying %s: %w", p, err)
		}
		if err := sftpClient.Chmod(target, info.Mode().Perm()); err != nil {
			return fmt.Errorf("setting permissions on %s: %w", target, err)
		}
		return nil
	})
}

func (c *Client) sftpClient() (*sftp.Client, error) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	if conn == nil {
		return nil, &TransportError{Op: "sftp", Err: fmt.Errorf("not connected")}
	}
	sftpClient, err := sftp.NewClient(conn)
	if err != nil {
		return nil, &TransportError{Op: "sftp", Err: err, IsTemporary: true}
	}
	return sftpClient, nil
}

// copyWithContext copies src to dst, checking for cancellation between
// chunks.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		nr, err := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}
