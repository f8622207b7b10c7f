package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/ivlev/animstage/internal/config"
	"github.com/ivlev/animstage/internal/director"
	"github.com/ivlev/animstage/internal/effects"
	"github.com/ivlev/animstage/internal/engine"
	"github.com/ivlev/animstage/internal/library"
	"github.com/ivlev/animstage/internal/preview"
	"github.com/ivlev/animstage/internal/renderer"
	"github.com/ivlev/animstage/internal/scene"
	"github.com/ivlev/animstage/internal/source"
	"github.com/ivlev/animstage/internal/stream"
	"github.com/ivlev/animstage/internal/system"
	"github.com/ivlev/animstage/internal/video"
)

var version = "dev"

type options struct {
	configPath string
	scenes     string
	output     string
	fps        int
	width      int
	height     int
	workers    int
	encoder    string
	quality    int
	fade       float64
	dpi        int
	debug      bool
	stats      bool
	preview    bool
	play       bool
	mqtt       string
	library    string
	save       string
	load       string
	list       bool
}

// loadedScript is a script together with the name it is exported under
type loadedScript struct {
	name   string
	script *director.Script
}

func parseFlags() *options {
	o := &options{}
	flag.StringVar(&o.configPath, "config", "", "YAML config file")
	flag.StringVar(&o.scenes, "scene", "", "Scene script(s), comma-separated (default: latest in scenes/)")
	flag.StringVar(&o.output, "output", "", "Output video for a single scene (default: generated in output/)")
	flag.IntVar(&o.fps, "fps", 60, "Frames per second")
	flag.IntVar(&o.width, "width", 0, "Frame width (0: stage width)")
	flag.IntVar(&o.height, "height", 0, "Frame height (0: stage height)")
	flag.IntVar(&o.workers, "workers", 0, "Scenes exported at once (0: by CPU and memory)")
	flag.StringVar(&o.encoder, "encoder", "", "Video encoder, or auto to probe for hardware")
	flag.IntVar(&o.quality, "quality", 0, "Quality (0: auto, x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	flag.Float64Var(&o.fade, "fade", 0, "Fade in and out from black (seconds)")
	flag.IntVar(&o.dpi, "dpi", 150, "DPI for PDF assets")
	flag.BoolVar(&o.debug, "debug", false, "Debug logging and frame stamps")
	flag.BoolVar(&o.stats, "stats", false, "Print a performance report")
	flag.BoolVar(&o.preview, "preview", false, "Open a preview window instead of exporting")
	flag.BoolVar(&o.play, "play", false, "Play in real time and stream poses instead of exporting")
	flag.StringVar(&o.mqtt, "mqtt", "", "MQTT broker URL for the pose stream, e.g. tcp://localhost:1883")
	flag.StringVar(&o.library, "library", "", "Scene library file")
	flag.StringVar(&o.save, "save", "", "Save the loaded scene into the library under this name")
	flag.StringVar(&o.load, "load", "", "Load a scene from the library instead of a file")
	flag.BoolVar(&o.list, "list", false, "List scenes in the library")
	flag.Parse()
	return o
}

// buildConfig loads the config file, then applies flags that were set
// explicitly on the command line.
func buildConfig(o *options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.ScenePaths = splitList(o.scenes)
		case "output":
			cfg.OutputVideo = o.output
		case "fps":
			cfg.FPS = o.fps
		case "width":
			cfg.Width = o.width
		case "height":
			cfg.Height = o.height
		case "workers":
			cfg.Workers = o.workers
		case "encoder":
			cfg.VideoEncoder = o.encoder
		case "quality":
			cfg.Quality = o.quality
		case "fade":
			cfg.FadeIn, cfg.FadeOut = o.fade, o.fade
		case "dpi":
			cfg.AssetDPI = o.dpi
		case "debug":
			cfg.Debug = o.debug
		case "stats":
			cfg.ShowStats = o.stats
		case "mqtt":
			cfg.Mqtt.URL = o.mqtt
		case "library":
			cfg.LibraryPath = o.library
		}
	})

	if cfg.VideoEncoder == "" || cfg.VideoEncoder == "auto" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			log.Infof("Hardware encoder found: %s", cfg.VideoEncoder)
		}
	}
	if cfg.Quality == 0 {
		switch cfg.VideoEncoder {
		case "h264_videotoolbox":
			cfg.Quality = 75
		case "h264_nvenc":
			cfg.Quality = 28
		default:
			cfg.Quality = 23
		}
	}
	cfg.BuildVersion = version

	return cfg, cfg.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func openLibrary(cfg *config.Config) (*library.Library, error) {
	if cfg.LibraryPath == "" {
		return nil, fmt.Errorf("no library given, use -library")
	}
	return library.Open(cfg.LibraryPath)
}

func loadScripts(o *options, cfg *config.Config) ([]loadedScript, error) {
	if o.load != "" {
		lib, err := openLibrary(cfg)
		if err != nil {
			return nil, err
		}
		defer lib.Close()

		script, err := lib.Load(o.load)
		if err != nil {
			return nil, err
		}
		return []loadedScript{{name: o.load, script: script}}, nil
	}

	paths := cfg.ScenePaths
	if len(paths) == 0 {
		latest, err := director.FindLatestScript(director.ScenesDir)
		if err != nil {
			return nil, fmt.Errorf("%w. Put a scene script into %s/", err, director.ScenesDir)
		}
		log.Infof("Using scene: %s", latest)
		paths = []string{latest}
	}

	var scripts []loadedScript
	for _, path := range paths {
		script, err := director.ReadScript(path)
		if err != nil {
			return nil, err
		}
		name := script.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		scripts = append(scripts, loadedScript{name: name, script: script})
	}
	return scripts, nil
}

// outputPath names the video of the index-th of total scenes. Several
// scenes get their index in the name so none overwrites another.
func outputPath(cfg *config.Config, name string, index, total int) string {
	if total == 1 && cfg.OutputVideo != "" {
		return cfg.OutputVideo
	}
	cleanName := strings.ReplaceAll(name, " ", "_")
	if total > 1 {
		cleanName = fmt.Sprintf("%02d_%s", index+1, cleanName)
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
}

func _main(o *options) error {
	cfg, err := buildConfig(o)
	if err != nil {
		return err
	}

	if o.list {
		lib, err := openLibrary(cfg)
		if err != nil {
			return err
		}
		defer lib.Close()
		names, err := lib.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	scripts, err := loadScripts(o, cfg)
	if err != nil {
		return err
	}

	if o.save != "" {
		lib, err := openLibrary(cfg)
		if err != nil {
			return err
		}
		err = lib.Save(o.save, scripts[0].script)
		lib.Close()
		if err != nil {
			return err
		}
		log.Infof("Saved %s to %s", o.save, cfg.LibraryPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pub stream.Publisher = stream.NopPublisher{}
	if cfg.Mqtt.Enabled() {
		mp, err := stream.Connect(cfg.Mqtt)
		if err != nil {
			return err
		}
		pub = mp
	}
	defer pub.Close()

	assets := source.NewLoader(cfg.AssetDPI)

	scenes := make([]*scene.Scene, len(scripts))
	for i, ls := range scripts {
		if scenes[i], err = director.BuildScene(ls.script); err != nil {
			return fmt.Errorf("scene %s: %w", ls.name, err)
		}
	}

	var eff effects.Effect = &effects.DefaultEffect{}
	if cfg.FadeIn > 0 || cfg.FadeOut > 0 {
		eff = effects.NewFadeEffect(eff)
	}
	encoder := &video.FFmpegEncoder{Codec: cfg.VideoEncoder, Quality: cfg.Quality}
	project := engine.NewProject(cfg, encoder, eff, assets, pub)

	switch {
	case o.preview:
		ls := scripts[0]
		stage := ls.script.StageOrDefault()
		r, err := renderer.New(stage.Width, stage.Height, stage.Background)
		if err != nil {
			return err
		}
		r.Assets = assets
		r.Debug = cfg.Debug
		return preview.Run(preview.New(ls.name, scenes[0], r, pub, cfg.PreviewScale), cfg.FPS)

	case o.play:
		for i, ls := range scripts {
			if _, err := project.Play(ctx, ls.name, scenes[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}

	jobs := make([]engine.Job, len(scripts))
	for i, ls := range scripts {
		jobs[i] = engine.Job{
			Name:   ls.name,
			Scene:  scenes[i],
			Stage:  ls.script.StageOrDefault(),
			Output: outputPath(cfg, ls.name, i, len(scripts)),
		}
	}

	reports, err := project.ExportAll(ctx, jobs)
	if err != nil {
		return err
	}
	for _, r := range reports {
		log.Infof("Done: %s (%d frames)", r.Output, r.Frames)
	}
	return nil
}

func main() {
	o := parseFlags()

	formatter := &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}
	log.SetFormatter(formatter)
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
	if o.debug {
		log.SetLevel(log.DebugLevel)
	}

	system.InitResourceLimits()

	if err := _main(o); err != nil {
		log.Fatal(err)
	}
}
