package detections

import (
	"image"
	"runtime"
	"sync"
)

// packCHW writes img into dst as three planar channels (R, G, B) scaled to
// [0, 1]. img must be width x height with its origin at (0, 0).
func packCHW(img image.Image, dst []float32, width, height int) {
	channelSize := width * height
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > height {
		numWorkers = height
	}
	if numWorkers < 1 {
		return
	}
	rowsPerWorker := height / numWorkers

	nrgba, fast := img.(*image.NRGBA)

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		startY := w * rowsPerWorker
		endY := startY + rowsPerWorker
		if w == numWorkers-1 {
			endY = height
		}

		go func(startY, endY int) {
			defer wg.Done()
			for y := startY; y < endY; y++ {
				offset := y * width
				for x := 0; x < width; x++ {
					i := offset + x
					if fast {
						p := nrgba.Pix[y*nrgba.Stride+x*4:]
						dst[i] = float32(p[0]) / 255.0
						dst[channelSize+i] = float32(p[1]) / 255.0
						dst[channelSize*2+i] = float32(p[2]) / 255.0
						continue
					}
					r, g, b, _ := img.At(x, y).RGBA()
					dst[i] = float32(r>>8) / 255.0
					dst[channelSize+i] = float32(g>>8) / 255.0
					dst[channelSize*2+i] = float32(b>>8) / 255.0
				}
			}
		}(startY, endY)
	}

	wg.Wait()
}
