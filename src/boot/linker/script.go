package linker

// .bss.uninit is kept ahead of the zeroed range; anything placed there is
// left alone by the zero initializer. The heap is a fixed NOLOAD region
// above the stack; DRAM past it is never touched.
const scriptTemplateText = `OUTPUT_ARCH({{.Arch}})
ENTRY({{.Entry}})
MEMORY {
    DRAM : ORIGIN = {{printf "0x%x" .Origin}}, LENGTH = {{printf "0x%x" .Length}}
}
SECTIONS {
    .text : {
        *({{.EntrySection}})
        *(.text .text.*)
    } > DRAM
    .rodata : {
        *(.rodata .rodata.*)
        *(.srodata .srodata.*)
    } > DRAM
    .data : {
        _sdata = .;
        *(.data .data.*)
        *(.sdata .sdata.*)
        _edata = .;
    } > DRAM
    .bss (NOLOAD) : {
        *(.bss.uninit)
        {{.BSSStart}} = .;
        *(.bss .bss.*)
        *(.sbss .sbss.*)
        . = ALIGN(8);
        {{.BSSEnd}} = .;
    } > DRAM
    .stack (NOLOAD) : {
        . = ALIGN(16);
        . += {{printf "0x%x" .StackSize}};
        {{.StackTop}} = .;
    } > DRAM
    .heap (NOLOAD) : {
        _heap_start = .;
        . += {{printf "0x%x" .HeapSize}};
        _heap_end = .;
    } > DRAM
    /DISCARD/ : {
        *(.eh_frame)
    }
}
PROVIDE(_sidata = _sdata);
PROVIDE(_sbss = {{.BSSStart}});
PROVIDE(_ebss = {{.BSSEnd}});
PROVIDE(_globals_start = _sdata);
PROVIDE(_globals_end = {{.BSSEnd}});
PROVIDE(_stack_top = {{.StackTop}});
`
