package xconf

// Options 配置加载选项
type Options struct {
	// Delim 键分隔符，默认 "."
	Delim string
	// Tag Unmarshal 使用的结构体标签，默认 "koanf"
	Tag string

	defaults       []byte
	defaultsFormat Format
}

// Option 配置加载选项函数
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Delim: ".",
		Tag:   "koanf",
	}
}

// WithDelim 设置键分隔符，空字符串忽略。
func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

// WithTag 设置结构体标签名，空字符串忽略。
func WithTag(tag string) Option {
	return func(o *Options) {
		if tag != "" {
			o.Tag = tag
		}
	}
}

// WithDefaults 设置默认配置层，文件中的同名键覆盖默认值。Reload 时同样先加载默认层。
func WithDefaults(data []byte, format Format) Option {
	return func(o *Options) {
		o.defaults = data
		o.defaultsFormat = format
	}
}
