package engine

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Device identifies the execution device passed to the inference binary,
// e.g. "cpu" or "cuda:0".
type Device string

const DeviceCPU Device = "cpu"

// IsCUDA reports whether the device is a CUDA accelerator.
func (d Device) IsCUDA() bool {
	return len(d) > 4 && d[:4] == "cuda"
}

// cudaAvailable is a var so tests can force a deterministic answer.
var cudaAvailable = func() bool {
	// The NVIDIA driver exposes /proc/driver/nvidia on Linux; nvidia-smi on
	// PATH covers everything else.
	if _, err := os.Stat("/proc/driver/nvidia"); err == nil {
		return true
	}
	_, err := exec.LookPath("nvidia-smi")
	return err == nil
}

// ResolveDevice picks the execution device for the engine: CPU on macOS,
// the requested CUDA device when an NVIDIA driver is present, CPU otherwise.
func ResolveDevice(deviceID int) Device {
	if runtime.GOOS == "darwin" {
		return DeviceCPU
	}
	if cudaAvailable() {
		return Device(fmt.Sprintf("cuda:%d", deviceID))
	}
	return DeviceCPU
}
