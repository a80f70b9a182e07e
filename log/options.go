package log

import "go.uber.org/zap/zapcore"

type Options struct {
	//Log level,the optional value is zapcore.DebugLevel and above
	level zapcore.Level
	//console output instead of json
	console bool
	//Report Warn level stack trace
	stacktrace bool
	//time layout
	timeLayout string
	//init the named
	name string
}

func (o *Options) WithLevel(level zapcore.Level) *Options {
	o.level = level
	return o
}

func (o *Options) WithConsole(console bool) *Options {
	o.console = console
	return o
}

func (o *Options) WithStacktrace(stacktrace bool) *Options {
	o.stacktrace = stacktrace
	return o
}

func (o *Options) WithTimeLayout(timeLayout string) *Options {
	o.timeLayout = timeLayout
	return o
}

func (o *Options) WithNamed(name string) *Options {
	o.name = name
	return o
}

func DefaultOptions() *Options {
	return &Options{
		level:      zapcore.InfoLevel,
		timeLayout: "02/Jan/2006:15:04:05 -0700",
		console:    false,
	}
}
