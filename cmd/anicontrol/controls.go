package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ivlev/anicontrol/internal/display"
	"github.com/ivlev/anicontrol/internal/playback"
	"github.com/ivlev/anicontrol/internal/session"
	"github.com/ivlev/anicontrol/internal/source"
)

const controlsHelp = `[*] Управление (строка + Enter):
    t | toggle       пуск/пауза
    n | next         следующий кадр
    p | prev         предыдущий кадр
    seek <N>         перейти к кадру N
    speed <X>        скорость 0.1-4.0
    load <путь>      загрузить другой файл
    d | describe     описать анимацию
    s | status       текущее состояние
    q | quit         выход`

// play runs the transport controls until quit, EOF or cancellation.
func play(ctx context.Context, sess *session.Session, disp *display.Display, r io.Reader) {
	sched := sess.Scheduler()
	fmt.Println(controlsHelp)
	sched.Play()
	printStatus(sched.Status())

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("[*] Остановлено")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !control(ctx, sess, line) {
				if disp != nil {
					fmt.Printf("[*] Показано кадров: %d\n", disp.Shown())
				}
				return
			}
		}
	}
}

// control applies one command line and reports whether to keep running.
func control(ctx context.Context, sess *session.Session, line string) bool {
	sched := sess.Scheduler()
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "t", "toggle":
		sched.TogglePlay()
	case "n", "next":
		sched.Next()
	case "p", "prev":
		sched.Previous()
	case "seek":
		if len(fields) < 2 {
			fmt.Println("[!] seek: укажите номер кадра")
			return true
		}
		i, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Printf("[!] seek: %v\n", err)
			return true
		}
		sched.SetFrame(i)
	case "speed":
		if len(fields) < 2 {
			fmt.Println("[!] speed: укажите множитель")
			return true
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || x <= 0 {
			fmt.Printf("[!] speed: некорректное значение %q\n", fields[1])
			return true
		}
		fmt.Printf("[*] Скорость: %.1fx\n", sched.SetSpeed(x))
	case "load":
		if len(fields) < 2 {
			fmt.Println("[!] load: укажите путь")
			return true
		}
		path := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		go load(ctx, sess, path)
		return true
	case "d", "describe":
		go describe(ctx, sess)
		return true
	case "s", "status":
	case "q", "quit":
		return false
	default:
		fmt.Printf("[!] Неизвестная команда: %s\n", fields[0])
		return true
	}

	printStatus(sched.Status())
	return true
}

func load(ctx context.Context, sess *session.Session, path string) {
	in, err := source.ReadFile(path)
	if err != nil {
		fmt.Printf("[!] Ошибка чтения файла: %v\n", err)
		return
	}
	fmt.Printf("[*] Декодирование %s...\n", in.Name)
	res, err := sess.Load(ctx, in)
	switch {
	case errors.Is(err, session.ErrSuperseded):
		fmt.Printf("[*] Загрузка %s отменена новой загрузкой\n", in.Name)
	case err != nil:
		fmt.Printf("[!] Ошибка декодирования: %v\n", err)
	default:
		fmt.Printf("[+++] Загружено: %s (%d кадров)\n", res.Animation.Source, res.Animation.FrameCount())
		printStatus(sess.Scheduler().Status())
	}
}

func describe(ctx context.Context, sess *session.Session) {
	fmt.Println("[*] " + session.ProcessingMessage)
	text, err := sess.Analyze(ctx)
	if errors.Is(err, session.ErrBusy) {
		fmt.Println("[!] Анализ уже выполняется")
		return
	}
	if err != nil {
		fmt.Printf("[!] %v\n", err)
	}
	fmt.Printf("[AI] %s\n", text)
}

func printStatus(st playback.Status) {
	state := "пауза"
	if st.Playing {
		state = "воспроизведение"
	}
	if st.Count == 0 {
		fmt.Println("[>] Нет анимации")
		return
	}
	fmt.Printf("[>] Кадр %d/%d | %.1fx | %s\n", st.Index+1, st.Count, st.Speed, state)
}
