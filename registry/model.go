package registry

import (
	"net"
	"strconv"
	"time"

	"github.com/fireflycore/go-discover/constant"
)

// ServiceInstance 服务实例，身份由 (Address, Port) 确定，观察到后不再修改。
type ServiceInstance struct {
	// 所属服务名
	Service string `json:"service"`
	// 实例地址
	Address string `json:"address"`
	// 实例端口
	Port int `json:"port"`
	// 实例标签
	Tags []string `json:"tags"`
}

// Host 返回 "ip:port" 形式的地址。
func (s ServiceInstance) Host() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

// HasTags 实例是否携带 tags 中的每一个非空标签。
func (s ServiceInstance) HasTags(tags []string) bool {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		found := false
		for _, own := range s.Tags {
			if own == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Registration 服务注册参数。
//
// HTTPCheck 与 TCPCheck 为被动健康检查，优先于主动 TTL 心跳；三者只会安装一种。
type Registration struct {
	Name    string
	Tags    []string
	Address string
	Port    int

	// Interval 被动检查间隔，同时也是心跳间隔；TTL 为其两倍。
	Interval  time.Duration
	HTTPCheck string
	TCPCheck  string
}

// Passive 是否使用被动健康检查。
func (r *Registration) Passive() bool {
	return r.HTTPCheck != "" || r.TCPCheck != ""
}

// TTL 主动心跳模式下的 TTL。
func (r *Registration) TTL() time.Duration {
	return 2 * r.Interval
}

// CheckID 返回服务级 check 标识。
func CheckID(name string) string {
	return constant.CheckIdPrefix + name
}
