// Package sys 获取本机主机名与内网地址，用于注册与 key 命名。
package sys

import (
	"errors"
	"net"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
)

// ErrNoInternalIP 没有可用的内网 IPv4 地址
var ErrNoInternalIP = errors.New("no internal ipv4 address")

// HostInfo 宿主机静态信息
type HostInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	KernelVersion   string `json:"kernel_version"`
	Arch            string `json:"arch"`
}

// GetHostInfo 获取宿主机信息，host.Info 失败时只填充 OS/Arch。
func GetHostInfo() (*HostInfo, error) {
	info := &HostInfo{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	hInfo, err := host.Info()
	if err == nil {
		info.Hostname = hInfo.Hostname
		info.Platform = hInfo.Platform
		info.PlatformVersion = hInfo.PlatformVersion
		info.KernelVersion = hInfo.KernelVersion
	}

	return info, nil
}

// Hostname 用于 F:ServcieTags / F:RegisterTag key 的主机名。
func Hostname() string {
	if info, err := GetHostInfo(); err == nil && info.Hostname != "" {
		return info.Hostname
	}
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "localhost"
}

// InternalIP 返回第一个非回环的 IPv4 地址。
func InternalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip.String(), nil
		}
	}
	return "", ErrNoInternalIP
}
