package picperfect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Ak-arsha/Picture-Perfect/utils"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// Ops describes one run of the processor over a file, a URL, a pipe or a directory.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
	// Progress is where the directory progress bar is drawn; nil disables it.
	Progress io.Writer
}

// Execute enhances the source described by op. A directory source is walked
// recursively and its images are processed concurrently into the destination
// directory, keeping their relative paths.
func (p *Processor) Execute(ctx context.Context, op *Ops) error {
	now := time.Now()

	src := op.Src
	if utils.IsValidUrl(src) {
		f, err := utils.DownloadImage(ctx, src)
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
		defer os.Remove(f.Name())
		defer f.Close()
		src = f.Name()
	}

	var (
		info os.FileInfo
		err  error
	)
	// Check if the source is a pipe name or a regular file.
	if src == op.PipeName {
		info, err = os.Stdin.Stat()
	} else {
		info, err = os.Stat(src)
	}
	if err != nil {
		return fmt.Errorf("failed to load the source image: %w", err)
	}

	switch mode := info.Mode(); {
	case mode.IsDir():
		if p.Faces != nil {
			return errors.New("landmarks can only be supplied for a single image")
		}
		err = p.executeDir(ctx, src, op)
	default:
		ext := filepath.Ext(op.Dst)
		if op.Dst != op.PipeName && ext != "" && !isValidExtension(ext) {
			return fmt.Errorf("%v file type not supported", ext)
		}
		err = p.executeFile(src, op.Dst, op)
	}
	if err != nil {
		return err
	}

	p.logger().Info("execution finished", zap.Duration("elapsed", time.Since(now)))
	return nil
}

// executeFile enhances a single image while the spinner, if any, is running.
func (p *Processor) executeFile(in, out string, op *Ops) error {
	if p.Spinner != nil {
		p.Spinner.Start()
	}
	err := p.processFile(in, out, op)
	if p.Spinner != nil {
		if err != nil {
			p.Spinner.StopMsg = utils.StatusLine("enhancing the image failed ✘", utils.ErrorMessage) + "\n"
		} else {
			p.Spinner.StopMsg = utils.StatusLine("the image has been enhanced successfully ✔", utils.SuccessMessage) + "\n"
		}
		p.Spinner.Stop()
	}
	return err
}

// executeDir fans the images of dir out to a bounded pool of workers.
func (p *Processor) executeDir(ctx context.Context, dir string, op *Ops) error {
	if err := os.MkdirAll(op.Dst, 0755); err != nil {
		return fmt.Errorf("unable to create the destination directory: %w", err)
	}

	paths, err := walkDir(dir)
	if err != nil {
		return err
	}

	// Limit the concurrently running workers to maxWorkers.
	workers := op.Workers
	if workers <= 0 || workers > maxWorkers {
		workers = min(runtime.NumCPU(), maxWorkers)
	}

	var bar *progressbar.ProgressBar
	if op.Progress != nil {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription(utils.DecorateText(utils.Brand, utils.StatusMessage)),
			progressbar.OptionSetWriter(op.Progress),
			progressbar.OptionShowCount(),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		path := path
		g.Go(func() error {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			dst := filepath.Join(op.Dst, rel)
			if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
				return err
			}
			if err := p.processFile(path, dst, op); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// processFile calls the processor over the source image. A partially written
// destination file is removed when processing fails.
func (p *Processor) processFile(in, out string, op *Ops) (err error) {
	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}
	defer func() {
		if f, ok := src.(*os.File); ok && f != os.Stdin {
			if cerr := f.Close(); cerr != nil {
				p.logger().Warn("could not close the opened file", zap.Error(cerr))
			}
		}
	}()
	defer func() {
		f, ok := dst.(*os.File)
		if !ok || f == os.Stdout {
			return
		}
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(f.Name())
		}
	}()

	return p.Process(src, dst)
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
		}
	}
	return src, dst, nil
}

// walkDir returns the supported image files found under src, recursively.
func walkDir(src string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && isValidExtension(filepath.Ext(d.Name())) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to walk the source directory: %w", err)
	}
	return paths, nil
}
