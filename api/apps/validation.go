package apps

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shapeblock/shapeblock-api/api/apps/models"
	"github.com/shapeblock/shapeblock-api/internal/db"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"
)

const (
	maxNameLength   = 50
	maxReplicas     = 6
	maxVolumeSize   = 5
	defaultVolume   = 2
	volumeMountRoot = "/workspace/"
)

var variablePattern = regexp.MustCompile(`^[A-Za-z0-9]([_A-Za-z0-9]*[A-Za-z0-9])?$`)

// Default resources of processes without explicit requests.
var (
	initProcessDefaults = db.Process{Memory: "512Mi", CPU: "500m"}
	workerDefaults      = db.Process{Memory: "1Gi", CPU: "1000m"}
)

func validateName(name string) error {
	if len(name) > maxNameLength {
		return fmt.Errorf("name %q is longer than %d characters", name, maxNameLength)
	}
	if problems := validation.IsDNS1123Label(name); len(problems) > 0 {
		return fmt.Errorf("invalid name %q: %s", name, strings.Join(problems, ", "))
	}
	return nil
}

func validateReplicas(replicas int) error {
	if replicas < 1 || replicas > maxReplicas {
		return fmt.Errorf("replicas must be between 1 and %d, got %d", maxReplicas, replicas)
	}
	return nil
}

// keyValues validates variables. Keys are unique.
func keyValues(list []models.KeyValue) ([]db.KeyValue, error) {
	var errs []error
	seen := map[string]bool{}
	result := make([]db.KeyValue, 0, len(list))
	for _, kv := range list {
		key := strings.TrimSpace(kv.Key)
		switch {
		case !variablePattern.MatchString(key):
			errs = append(errs, fmt.Errorf("invalid key %q, only alphanumeric characters and _ are allowed", kv.Key))
		case seen[key]:
			errs = append(errs, fmt.Errorf("duplicated key %s", key))
		}
		seen[key] = true
		result = append(result, db.KeyValue{Key: key, Value: kv.Value})
	}
	return result, errors.Join(errs...)
}

func volumes(list []models.Volume) ([]db.Volume, error) {
	var errs []error
	seen := map[string]bool{}
	result := make([]db.Volume, 0, len(list))
	for _, v := range list {
		if problems := validation.IsDNS1123Label(v.Name); len(problems) > 0 {
			errs = append(errs, fmt.Errorf("invalid volume name %q: %s", v.Name, strings.Join(problems, ", ")))
		}
		if seen[v.Name] {
			errs = append(errs, fmt.Errorf("duplicated volume %s", v.Name))
		}
		seen[v.Name] = true
		if !strings.HasPrefix(v.MountPath, volumeMountRoot) || len(v.MountPath) == len(volumeMountRoot) {
			errs = append(errs, fmt.Errorf("mount path of volume %s must start with %s", v.Name, volumeMountRoot))
		}
		size := v.Size
		if size == 0 {
			size = defaultVolume
		}
		if size < 1 || size > maxVolumeSize {
			errs = append(errs, fmt.Errorf("size of volume %s must be between 1 and %d", v.Name, maxVolumeSize))
		}
		result = append(result, db.Volume{Name: v.Name, MountPath: v.MountPath, Size: size})
	}
	return result, errors.Join(errs...)
}

// processes validates init processes or workers, filling unset resources
// from defaults.
func processes(list []models.Process, defaults db.Process) ([]db.Process, error) {
	var errs []error
	seen := map[string]bool{}
	result := make([]db.Process, 0, len(list))
	for _, p := range list {
		if problems := validation.IsDNS1123Label(p.Key); len(problems) > 0 {
			errs = append(errs, fmt.Errorf("invalid process %q: %s", p.Key, strings.Join(problems, ", ")))
		}
		if seen[p.Key] {
			errs = append(errs, fmt.Errorf("duplicated process %s", p.Key))
		}
		seen[p.Key] = true

		process := db.Process{Key: p.Key, Memory: p.Memory, CPU: p.CPU}
		if process.Memory == "" {
			process.Memory = defaults.Memory
		}
		if process.CPU == "" {
			process.CPU = defaults.CPU
		}
		if _, err := resource.ParseQuantity(process.Memory); err != nil {
			errs = append(errs, fmt.Errorf("invalid memory %q of process %s", process.Memory, p.Key))
		}
		if _, err := resource.ParseQuantity(process.CPU); err != nil {
			errs = append(errs, fmt.Errorf("invalid cpu %q of process %s", process.CPU, p.Key))
		}
		result = append(result, process)
	}
	return result, errors.Join(errs...)
}

func customDomains(list []string) ([]string, error) {
	var errs []error
	seen := map[string]bool{}
	result := make([]string, 0, len(list))
	for _, domain := range list {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if problems := validation.IsDNS1123Subdomain(domain); len(problems) > 0 || !strings.Contains(domain, ".") {
			errs = append(errs, fmt.Errorf("invalid domain %q", domain))
			continue
		}
		if seen[domain] {
			continue
		}
		seen[domain] = true
		result = append(result, domain)
	}
	return result, errors.Join(errs...)
}
