package orchestrator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shapeblock/shapeblock-api/internal/db"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

// PodAppLabel is set by the operator on every pod of an app to the app id.
const PodAppLabel = "appUuid"

// maxLogLineSize bounds a single log line read from a pod.
const maxLogLineSize = 1 << 20

// ErrNoPod is returned when an app has no pod to read logs from.
var ErrNoPod = errors.New("app has no pod")

// LogFollower streams the logs of running apps.
type LogFollower interface {
	// FollowLogs hands every log line of the pod of app written since the
	// given duration to line, followed by new lines until ctx is done or
	// line returns an error.
	FollowLogs(ctx context.Context, app db.App, project db.Project, since time.Duration, line func(string) error) error
}

var _ LogFollower = &Client{}

func (c *Client) FollowLogs(ctx context.Context, app db.App, project db.Project, since time.Duration, line func(string) error) error {
	pod, err := c.appPod(ctx, app, project)
	if err != nil {
		return err
	}

	options := &corev1.PodLogOptions{Follow: true}
	if since > 0 {
		options.SinceSeconds = ptr.To(int64(since.Seconds()))
	}
	stream, err := c.kube.CoreV1().Pods(project.Name).GetLogs(pod, options).Stream(ctx)
	if err != nil {
		return fmt.Errorf("stream logs of pod %s: %w", pod, err)
	}
	defer stream.Close()

	if err := scanLines(stream, line); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read logs of pod %s: %w", pod, err)
	}
	return nil
}

// scanLines hands every line of r to line. Lines longer than maxLogLineSize
// fail with bufio.ErrTooLong.
func scanLines(r io.Reader, line func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLogLineSize)
	for scanner.Scan() {
		if err := line(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// appPod returns the name of a pod of app, preferring a running one.
func (c *Client) appPod(ctx context.Context, app db.App, project db.Project) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	pods, err := c.kube.CoreV1().Pods(project.Name).List(ctx, metav1.ListOptions{LabelSelector: PodAppLabel + "=" + app.ID})
	if err != nil {
		return "", fmt.Errorf("list pods of app %s: %w", app.Name, err)
	}
	if len(pods.Items) == 0 {
		return "", ErrNoPod
	}
	for _, pod := range pods.Items {
		if pod.Status.Phase == corev1.PodRunning {
			return pod.Name, nil
		}
	}
	return pods.Items[0].Name, nil
}
