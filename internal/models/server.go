package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openrack/skiff/internal/fault"
)

// Server is the core domain object representing a provisioned compute
// instance. Shared between the service and storage layers.
type Server struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	CPUCores  int          `json:"cpu_cores"`
	RAMGB     int          `json:"ram_gb"`
	StorageGB int          `json:"storage_gb"`
	Status    ServerStatus `json:"status"`
	Disks     []Disk       `json:"disks"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Disk is additional block storage attached to a server. It has no
// lifecycle of its own: it exists only inside its owner's disk sequence.
type Disk struct {
	ID         string    `json:"id"`
	SizeGB     int       `json:"size_gb"`
	AttachedAt time.Time `json:"attached_at"`
}

// NewServer builds a server in its initial provisioning state with a fresh
// identifier. The identifier is never reassigned afterwards.
func NewServer(name string, cpuCores, ramGB, storageGB int) (*Server, error) {
	if name == "" {
		return nil, &fault.ValidationError{Reason: "name must not be empty"}
	}
	if cpuCores <= 0 {
		return nil, &fault.ValidationError{Reason: "cpu_cores must be positive"}
	}
	if ramGB <= 0 {
		return nil, &fault.ValidationError{Reason: "ram_gb must be positive"}
	}
	if storageGB <= 0 {
		return nil, &fault.ValidationError{Reason: "storage_gb must be positive"}
	}

	now := time.Now().UTC()
	return &Server{
		ID:        uuid.NewString(),
		Name:      name,
		CPUCores:  cpuCores,
		RAMGB:     ramGB,
		StorageGB: storageGB,
		Status:    StatusProvisioning,
		Disks:     []Disk{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewDisk builds a disk of the given size, stamped with the attachment time.
func NewDisk(sizeGB int) (Disk, error) {
	if sizeGB <= 0 {
		return Disk{}, &fault.ValidationError{Reason: "size_gb must be positive"}
	}
	return Disk{
		ID:         uuid.NewString(),
		SizeGB:     sizeGB,
		AttachedAt: time.Now().UTC(),
	}, nil
}

// AttachDisk appends d to the server's disk sequence. Disks stay ordered by
// attachment time; a server in a terminal status accepts no mutation.
func (s *Server) AttachDisk(d Disk) error {
	if s.Status.IsTerminal() {
		return &fault.ConflictError{
			Reason: fmt.Sprintf("server %s is %s", s.ID, s.Status),
		}
	}
	s.Disks = append(s.Disks, d)
	s.UpdatedAt = time.Now().UTC()
	return nil
}
