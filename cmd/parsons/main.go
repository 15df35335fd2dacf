package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/guidoenr/parsons/internal/analyzer"
	"github.com/guidoenr/parsons/internal/app"
	"github.com/guidoenr/parsons/internal/audio"
	"github.com/guidoenr/parsons/internal/audio/mic"
	"github.com/guidoenr/parsons/internal/params"
	"github.com/guidoenr/parsons/internal/render"
	"github.com/guidoenr/parsons/internal/web"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("[parsons] ")
	logger := log.New(os.Stderr, "[parsons] ", 0)
	p := params.Defaults()
	env, err := params.LoadEnvFile(".env")
	if err != nil {
		logger.Fatalf("environment: %v", err)
	}
	if err := p.ApplyEnv(env); err != nil {
		logger.Fatalf("environment: %v", err)
	}

	var (
		notes      = flag.Int("n", p.NotesPerSecond, "Notes per second")
		window     = flag.Int("window", p.WindowLength, "Samples per analysis window")
		bandsFile  = flag.String("bands", "", "JSON file with the band layout (default: 8 bands from 0 to 5000 Hz)")
		policy     = flag.String("policy", string(p.Policy), "Bin energy policy (abs-real|magnitude|signed-real)")
		backend    = flag.String("backend", string(p.Backend), "FFT backend (gonum|godsp)")
		windowFunc = flag.String("window-func", p.Window, "Analysis window ("+strings.Join(analyzer.WindowNames(), "|")+")")
		normalize  = flag.Bool("normalize", p.Normalize, "Divide band energy by band width")
		energies   = flag.Bool("energies", false, "Print per-window band energies instead of the contour")
		plot       = flag.String("plot", "", "Plot instead of encoding (spectrum|energies)")
		plotWindow = flag.Int("plot-window", 0, "Window index for -plot spectrum")
		plotGUI    = flag.Bool("plot-gui", false, "Show -plot spectrum in an SDL window (needs -tags sdl)")
		palette    = flag.String("palette", "blocks", "Plot palette ("+strings.Join(render.PaletteNames(), "|")+")")
		webPort    = flag.Int("web", p.WebPort, "Serve results and live updates on this port (0 disables)")
		live       = flag.Bool("live", false, "Encode from an audio input device until q or Ctrl-C")
		deviceName = flag.String("audio-device", "", "Audio input device for -live (substring match)")
		listDevs   = flag.Bool("list-audio-devices", false, "List available audio input devices and exit")
		synthetic  = flag.Bool("synthetic", false, "Analyze a built-in synthetic melody instead of a file")
		profile    = flag.String("profile", "", "Append per-stage timings as CSV to this file")
		jsonOut    = flag.Bool("json", false, "Print the full result as JSON")
		debug      = flag.Bool("debug", false, "Enable verbose logging")
		noColor    = flag.Bool("no-color", false, "Disable coloured output")
	)
	flag.IntVar(notes, "per-second", p.NotesPerSecond, "Alias of -n")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <audio file (.wav|.mp3)>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *debug {
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else {
		logger.SetOutput(io.Discard)
	}

	p.NotesPerSecond = *notes
	p.WindowLength = *window
	p.Policy = analyzer.Policy(*policy)
	p.Backend = analyzer.Backend(*backend)
	p.Window = *windowFunc
	p.Normalize = *normalize
	p.PlotMode = *plot
	p.PlotWindow = *plotWindow
	p.WebPort = *webPort
	p.Color = !*noColor && render.IsTerminal(os.Stdout)
	if *bandsFile != "" {
		bands, err := params.LoadBands(*bandsFile)
		if err != nil {
			log.Fatalf("bands: %v", err)
		}
		p.Bands = bands
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *listDevs {
		if err := listDevices(); err != nil {
			log.Fatalf("list devices: %v", err)
		}
		return
	}

	a, err := app.New(app.Config{Params: p, Log: logger, Profile: *profile, Interactive: *live})
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
		}
	}()

	var server *web.Server
	if p.WebPort > 0 {
		server = web.NewServer(logger)
		go func() {
			if err := server.Start(ctx, ":"+strconv.Itoa(p.WebPort)); err != nil {
				log.Printf("web server: %v", err)
			}
		}()
	}

	if *live {
		if err := runLive(ctx, a, *deviceName, server); err != nil {
			log.Fatalf("live: %v", err)
		}
		return
	}

	open, err := sourceOpener(*synthetic, p.NotesPerSecond, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	if p.PlotMode == params.PlotSpectrum {
		if err := plotSpectrum(a, open, p.PlotWindow, *palette, *plotGUI); err != nil {
			log.Fatalf("plot: %v", err)
		}
		return
	}

	src, err := open()
	if err != nil {
		log.Fatalf("%v", err)
	}
	res, err := a.Analyze(ctx, src)
	if c, ok := src.(io.Closer); ok {
		_ = c.Close()
	}
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}

	switch {
	case *jsonOut:
		printJSON(res)
	case p.PlotMode == params.PlotEnergies:
		w, h := render.TerminalSize(os.Stdout)
		r, err := render.New(w-12, h, *palette, p.Color)
		if err != nil {
			log.Fatalf("plot: %v", err)
		}
		fmt.Print(r.Energies(res.Notes, res.Bands).String())
	case *energies:
		for _, e := range res.Windows {
			fmt.Println(formatEnergies(e))
		}
	default:
		fmt.Printf("pseudo Parsons code: %s\n", render.ColorContour(res.Contour, p.Color))
	}

	if server != nil {
		if err := server.SetResult(res); err != nil {
			log.Fatalf("web: %v", err)
		}
		fmt.Fprintf(os.Stderr, "serving on http://localhost:%d, Ctrl-C to stop\n", p.WebPort)
		<-ctx.Done()
	}
}

// sourceOpener returns a function opening the selected input afresh, so
// the spectrum plot can re-read it independently of the analysis.
func sourceOpener(synthetic bool, notesPerSecond int, args []string) (func() (audio.Source, error), error) {
	if synthetic {
		return func() (audio.Source, error) {
			return app.DemoMelody(44100, notesPerSecond), nil
		}, nil
	}
	if len(args) != 1 {
		return nil, errors.New("expected exactly one audio file")
	}
	path := args[0]
	return func() (audio.Source, error) {
		return audio.OpenFile(path)
	}, nil
}

func runLive(ctx context.Context, a *app.App, device string, server *web.Server) error {
	if err := mic.Initialize(); err != nil {
		return fmt.Errorf("initialize PortAudio: %w", err)
	}
	defer mic.Terminate()

	capture, err := mic.NewCapture(mic.CaptureConfig{
		DeviceName:   device,
		WindowLength: a.Params().WindowLength,
		Channels:     2,
	})
	if err != nil {
		return err
	}
	defer capture.Close()
	if info := capture.Device(); info != nil {
		fmt.Fprintf(os.Stderr, "listening on %q @ %d Hz, press q to stop\n", info.Name, capture.SampleRate())
	}

	color := a.Params().Color
	code, err := a.RunLive(ctx, capture, func(u app.Update) {
		fmt.Print(render.ColorContour(u.Symbol, color))
		if server != nil {
			_ = server.Publish(u)
		}
	})
	fmt.Println()
	if err != nil {
		return err
	}
	if dropped := capture.Dropped(); dropped > 0 {
		fmt.Fprintf(os.Stderr, "%d windows dropped\n", dropped)
	}
	fmt.Printf("pseudo Parsons code: %s\n", render.ColorContour(code, color))
	return nil
}

func plotSpectrum(a *app.App, open func() (audio.Source, error), index int, palette string, gui bool) error {
	src, err := open()
	if err != nil {
		return err
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}
	calc, err := a.Calculator(src.SampleRate())
	if err != nil {
		return err
	}

	i := 0
	for block, err := range audio.Windows(src, calc.WindowLength()) {
		if err != nil {
			return err
		}
		if i < index {
			i++
			continue
		}
		spectrum := calc.Spectrum(block)
		if gui {
			return showWindow(spectrum[:len(spectrum)/2+1])
		}
		w, h := render.TerminalSize(os.Stdout)
		r, err := render.New(w, h-2, palette, a.Params().Color)
		if err != nil {
			return err
		}
		fmt.Print(r.Spectrum(spectrum, calc.BinResolution()).String())
		return nil
	}
	return fmt.Errorf("input has only %d windows, window %d requested", i, index)
}

func showWindow(values []float64) error {
	win, err := render.OpenWindow("parsons spectrum", 900, 400)
	if err != nil {
		return err
	}
	defer win.Close()
	if err := win.Draw(values); err != nil {
		return err
	}
	if err := win.Wait(); err != nil && !errors.Is(err, render.ErrWindowClosed) {
		return err
	}
	return nil
}

func listDevices() error {
	if err := mic.Initialize(); err != nil {
		return fmt.Errorf("initialize PortAudio: %w", err)
	}
	defer mic.Terminate()

	devices, err := mic.ListDevices()
	if err != nil {
		return err
	}
	fmt.Printf("\n=== Audio Input Devices ===\n\n")
	for _, dev := range devices {
		if dev.MaxInput == 0 {
			continue
		}
		marker := ""
		if dev.IsDefaultInput {
			marker = " (default)"
		}
		fmt.Printf("- %s [%s]%s\n    inputs:%d sample:%.0f Hz\n",
			dev.Name, dev.HostAPI, marker, dev.MaxInput, dev.DefaultSampleHz)
	}
	return nil
}

func printJSON(res *app.Result) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}

func formatEnergies(e analyzer.Energies) string {
	fields := make([]string, len(e))
	for i, v := range e {
		fields[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}
	return strings.Join(fields, "\t")
}
