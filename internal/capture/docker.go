package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/google/uuid"

	"github.com/marcosistoocommon/ReoCamara/internal/fault"
)

// DefaultImage is an ffmpeg image whose entrypoint is the ffmpeg binary
const DefaultImage = "jrottenberg/ffmpeg:6.1-ubuntu"

// DockerRunner runs ffmpeg inside a throwaway container. The artifact directory is
// bind-mounted at the same absolute path so output paths need no rewriting.
type DockerRunner struct {
	client  *client.Client
	image   string
	workDir string
}

// NewDockerRunner connects to the Docker daemon from the environment
func NewDockerRunner(imageRef, workDir string) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	if imageRef == "" {
		imageRef = DefaultImage
	}

	return &DockerRunner{
		client:  cli,
		image:   imageRef,
		workDir: workDir,
	}, nil
}

func (r *DockerRunner) String() string {
	return "docker:" + r.image
}

// Check pulls the ffmpeg image when it is not present locally
func (r *DockerRunner) Check(ctx context.Context) error {
	images, err := r.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return fault.New("check", fault.KindToolMissing, fmt.Errorf("docker unavailable: %w", err))
	}

	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == r.image {
				return nil
			}
		}
	}

	log.Infof("⏳ Pulling %s...", r.image)
	reader, err := r.client.ImagePull(ctx, r.image, image.PullOptions{})
	if err != nil {
		return fault.New("check", fault.KindToolMissing, fmt.Errorf("failed to pull image: %w", err))
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}

// Run creates the container, starts it and waits for it to exit
func (r *DockerRunner) Run(ctx context.Context, args []string) error {
	containerConfig, hostConfig := r.containerSpec(args)

	resp, err := r.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil,
		fmt.Sprintf("reocamara-capture-%s", uuid.NewString()[:8]))
	if err != nil {
		return fault.Launch("record", fmt.Errorf("failed to create container: %w", err))
	}
	defer r.remove(resp.ID)

	log.Debugf("Starting %s in container %s", describe(r, args), resp.ID[:12])
	if err := r.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fault.Launch("record", fmt.Errorf("failed to start container: %w", err))
	}

	statusCh, errCh := r.client.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return fault.New("record", fault.KindProcess, fmt.Errorf("failed waiting for container: %w", err))
		}
	case status := <-statusCh:
		if status.StatusCode != 0 {
			return fault.New("record", fault.KindProcess, fmt.Errorf("ffmpeg container exited with status %d", status.StatusCode))
		}
	}
	return nil
}

// containerSpec builds the container and host configuration for one capture
func (r *DockerRunner) containerSpec(args []string) (*container.Config, *container.HostConfig) {
	containerConfig := &container.Config{
		Image: r.image,
		Cmd:   args,
		User:  fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		Labels: map[string]string{
			"managed-by": "reocamara",
		},
		WorkingDir: r.workDir,
	}

	hostConfig := &container.HostConfig{
		// The camera is usually only reachable on the host's LAN.
		NetworkMode: "host",
		AutoRemove:  false,
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: r.workDir,
				Target: r.workDir,
			},
		},
	}

	return containerConfig, hostConfig
}

func (r *DockerRunner) remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		log.Warningf("Failed to remove capture container %s: %v", id[:12], err)
	}
}

// Close closes the Docker client
func (r *DockerRunner) Close() error {
	return r.client.Close()
}
