package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vrischmann/envconfig"
	"gopkg.in/yaml.v3"
)

// Load 读取配置文件，.yaml/.yml 按 yaml 解析，其余按 json 解析。
// 读取后依次应用环境变量覆盖与默认值。
func Load(path string) (*Conf, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	c := &Conf{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, c)
	default:
		err = json.Unmarshal(b, c)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err = c.ApplyEnv(); err != nil {
		return nil, err
	}
	c.Bootstrap()
	return c, nil
}

// envOverride 可由环境变量覆盖的标量配置，零值表示未设置。
type envOverride struct {
	ServiceName    string  `envconfig:"FIREFLY_SERVICE_NAME,optional"`
	ServiceTags    string  `envconfig:"FIREFLY_SERVICE_TAGS,optional"`
	ServiceAddress string  `envconfig:"FIREFLY_SERVICE_ADDRESS,optional"`
	ServicePort    int     `envconfig:"FIREFLY_SERVICE_PORT,optional"`
	HttpCheck      string  `envconfig:"FIREFLY_HTTP_CHECK,optional"`
	TcpCheck       string  `envconfig:"FIREFLY_TCP_CHECK,optional"`
	HeartBreak     int     `envconfig:"FIREFLY_HEART_BREAK,optional"`
	Refresh        int     `envconfig:"FIREFLY_REFRESH,optional"`
	FallbackQPS    float64 `envconfig:"FIREFLY_FALLBACK_QPS,optional"`

	RegistryKind      string   `envconfig:"FIREFLY_REGISTRY_KIND,optional"`
	RegistryAddress   string   `envconfig:"FIREFLY_REGISTRY_ADDRESS,optional"`
	RegistryToken     string   `envconfig:"FIREFLY_REGISTRY_TOKEN,optional"`
	RegistryEndpoints []string `envconfig:"FIREFLY_REGISTRY_ENDPOINTS,optional"`
	RegistryNamespace string   `envconfig:"FIREFLY_REGISTRY_NAMESPACE,optional"`
}

// ApplyEnv 用 FIREFLY_* 环境变量覆盖配置。
func (c *Conf) ApplyEnv() error {
	var env envOverride
	if err := envconfig.InitWithOptions(&env, envconfig.Options{AllOptional: true}); err != nil {
		return fmt.Errorf("load env config: %w", err)
	}

	setString(&c.Service.Name, env.ServiceName)
	setString(&c.Service.Tags, env.ServiceTags)
	setString(&c.Service.Address, env.ServiceAddress)
	setString(&c.Service.HttpCheck, env.HttpCheck)
	setString(&c.Service.TcpCheck, env.TcpCheck)
	setInt(&c.Service.Port, env.ServicePort)
	setInt(&c.Service.HeartBreak, env.HeartBreak)
	setInt(&c.Service.Refresh, env.Refresh)
	if env.FallbackQPS > 0 {
		c.Service.FallbackQPS = env.FallbackQPS
	}

	setString(&c.Registry.Kind, env.RegistryKind)
	setString(&c.Registry.Address, env.RegistryAddress)
	setString(&c.Registry.Token, env.RegistryToken)
	setString(&c.Registry.Namespace, env.RegistryNamespace)
	if len(env.RegistryEndpoints) != 0 {
		c.Registry.Endpoints = env.RegistryEndpoints
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
