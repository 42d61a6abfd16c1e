package scoring

import "math"

// DriftWindowSize размер окна для скользящей статистики оценок (50 транзакций)
const DriftWindowSize = 50

// SlidingWindow кольцевой буфер последних оценок с накопленными суммами.
// Не потокобезопасен: синхронизацию обеспечивает владелец.
type SlidingWindow struct {
	values []float64
	index  int
	count  int
	sum    float64
	sumSq  float64
}

// NewSlidingWindow создает окно заданного размера
func NewSlidingWindow(size int) *SlidingWindow {
	if size < 1 {
		size = 1
	}
	return &SlidingWindow{values: make([]float64, size)}
}

// Add добавляет значение, вытесняя самое старое при заполненном окне
func (w *SlidingWindow) Add(value float64) {
	if w.count == len(w.values) {
		old := w.values[w.index]
		w.sum -= old
		w.sumSq -= old * old
	} else {
		w.count++
	}

	w.values[w.index] = value
	w.sum += value
	w.sumSq += value * value
	w.index = (w.index + 1) % len(w.values)
}

// Mean возвращает среднее значение по окну
func (w *SlidingWindow) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	return w.sum / float64(w.count)
}

// StdDev возвращает выборочное стандартное отклонение
func (w *SlidingWindow) StdDev() float64 {
	if w.count < 2 {
		return 0
	}
	n := float64(w.count)
	variance := (w.sumSq - (w.sum*w.sum)/n) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Count возвращает количество значений в окне
func (w *SlidingWindow) Count() int {
	return w.count
}
